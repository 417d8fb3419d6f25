// Package gmail fetches Gmail threads and reduces them to plain text for
// drafting, lists recent threads, and sends in-thread replies.
//
// Read operations degrade rather than fail: a missing credential or an
// upstream error produces a placeholder thread or an empty listing, so a
// reply can still be drafted.
//
// Body extraction walks the MIME tree depth-first and keeps the first
// text/plain part:
//
//	multipart/mixed
//	├── multipart/alternative
//	│   ├── text/plain   <- chosen
//	│   └── text/html
//	└── application/pdf
//
// Thread text renders each message as a From/Date/Subject header block, the
// body, and an 80-dash separator.
package gmail
