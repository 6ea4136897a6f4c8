package api

import (
	"net/http"
)

type oauth2Opt struct {
	token string
}

// OAuth2 sets the Authorization header, e.g. OAuth2("Bot", token).
func OAuth2(prefix, token string) *oauth2Opt {
	return &oauth2Opt{token: prefix + " " + token}
}

func (opt *oauth2Opt) Do(client defaultClient, req *http.Request) {
	req.Header.Set("Authorization", opt.token)
}

type reasonOpt struct {
	reason string
}

// AuditLogReason attaches a reason shown in the guild audit log.
func AuditLogReason(reason string) *reasonOpt {
	return &reasonOpt{reason: reason}
}

func (opt *reasonOpt) Do(client defaultClient, req *http.Request) {
	if opt.reason != "" {
		req.Header.Set("X-Audit-Log-Reason", PercentEncode(opt.reason))
	}
}
