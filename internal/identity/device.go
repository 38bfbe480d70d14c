package identity

import (
	"context"

	"github.com/mssola/useragent"

	"atelier/pkg/requestcontext"
)

// DeviceDescriptor summarizes the client platform. Attached to structured
// logs and generation records for support diagnostics.
type DeviceDescriptor struct {
	Browser        string
	BrowserVersion string
	OS             string
	Mobile         bool
	Bot            bool
}

// DescribeDevice parses the user agent carried in the request context.
// Returns a zero descriptor when none is present.
func DescribeDevice(ctx context.Context) DeviceDescriptor {
	raw := requestcontext.UserAgent(ctx)
	if raw == "" {
		return DeviceDescriptor{}
	}

	ua := useragent.New(raw)
	name, version := ua.Browser()
	return DeviceDescriptor{
		Browser:        name,
		BrowserVersion: version,
		OS:             ua.OS(),
		Mobile:         ua.Mobile(),
		Bot:            ua.Bot(),
	}
}
