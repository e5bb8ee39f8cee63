package audit

import (
	"context"

	"github.com/mssola/useragent"

	"riskflow/pkg/requestcontext"
)

// OriginFromContext collects the submitter metadata placed on ctx by the
// auth, request-id and client-metadata middleware.
func OriginFromContext(ctx context.Context) Origin {
	o := Origin{
		Subject:   requestcontext.Subject(ctx),
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	}
	if o.UserAgent != "" {
		ua := useragent.New(o.UserAgent)
		if ua.Bot() {
			o.Browser = "bot"
		} else if name, _ := ua.Browser(); name != "" {
			o.Browser = name
		}
		o.OS = ua.OS()
	}
	return o
}
