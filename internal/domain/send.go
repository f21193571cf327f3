package domain

// BulkSendRequest is the fully-parsed input of one bulk send operation.
type BulkSendRequest struct {
	FromName   string
	FromEmail  string
	Subject    string
	HTML       string
	Text       string
	Recipients []Recipient

	Attachments    []AttachmentRef
	EmailHistoryID string
	Scope          ScopeType
	// CandidateIDs are the marketed candidates for ScopeMarketing sends;
	// their employer companies drive the marketing blocking rule.
	CandidateIDs []int64
	UserID       int64
	Block        BlockConfig
	ResendBlock  *ResendBlockSet
}

// AttachmentRef points at a previously stored blob.
type AttachmentRef struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// AttachmentPayload is an inline attachment ready for the gateway.
type AttachmentPayload struct {
	Content     string `json:"content"` // base64
	Filename    string `json:"filename"`
	Type        string `json:"type"`
	Disposition string `json:"disposition"`
}

// Smartag is a recognized merge-field name. The list is closed: message
// content may only reference these placeholders, and the resolver fails the
// send when a required value is missing rather than dispatching a
// half-personalized batch.
type Smartag string

const (
	TagFirstName   Smartag = "first_name"
	TagLastName    Smartag = "last_name"
	TagFullName    Smartag = "full_name"
	TagCompanyName Smartag = "company_name"
	TagTitle       Smartag = "title"

	TagSenderName      Smartag = "sender_name"
	TagSenderFirstName Smartag = "sender_first_name"
	TagSenderEmail     Smartag = "sender_email"
	TagSenderPhone     Smartag = "sender_phone"

	TagUnsubscribeURL Smartag = "unsubscribe_url"
)

// RecipientSmartags are the merge fields sourced from the recipient's own
// entity record.
func RecipientSmartags() []Smartag {
	return []Smartag{TagFirstName, TagLastName, TagFullName, TagCompanyName, TagTitle}
}

// SenderSmartags are the merge fields sourced from the sending user.
func SenderSmartags() []Smartag {
	return []Smartag{TagSenderName, TagSenderFirstName, TagSenderEmail, TagSenderPhone}
}

// Placeholder returns the token substituted in message content.
func (t Smartag) Placeholder() string { return "{{" + string(t) + "}}" }

// SmartagValues maps merge fields to their values for one entity. A nil
// pointer means the source record had no value (NULL); an empty string is a
// present, valid value.
type SmartagValues map[Smartag]*string
