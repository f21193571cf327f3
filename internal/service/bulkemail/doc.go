// Package bulkemail implements the bulk email dispatch pipeline.
//
// One Send call flows through a fixed sequence: normalize recipient emails,
// partition the list into blocked / invalid / eligible sets via the
// exclusion rules, resolve per-recipient and sender merge fields, build
// gateway personalizations with per-recipient unsubscribe links, inline the
// stored attachments, then dispatch in gateway-sized chunks with bounded
// retry and a fixed inter-chunk cooldown.
//
// The service layer contains the business rules and depends only on the
// collaborator interfaces declared in repository.go. It never imports
// net/http or database/sql directly; Postgres, Redis, S3 and the SendGrid
// HTTP client plug in from the outside.
package bulkemail
