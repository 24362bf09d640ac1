package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// MessagingClient sends SMS and WhatsApp messages through Twilio. SMS and
// WhatsApp use distinct sender identities.
type MessagingClient struct {
	// BaseURL replaces https://api.twilio.com when set.
	BaseURL      string
	AccountSID   string
	AuthToken    string
	SMSFrom      string
	WhatsAppFrom string
	HTTPClient   *http.Client
}

// SendSMS sends a plain text message.
func (c *MessagingClient) SendSMS(ctx context.Context, to, body string) error {
	if c.SMSFrom == "" {
		return errors.New("no SMS sender configured")
	}
	return c.send(ctx, c.SMSFrom, to, body)
}

// SendWhatsApp sends a WhatsApp message. Both ends carry the whatsapp: prefix.
func (c *MessagingClient) SendWhatsApp(ctx context.Context, to, body string) error {
	if c.WhatsAppFrom == "" {
		return errors.New("no WhatsApp sender configured")
	}
	return c.send(ctx, whatsapp(c.WhatsAppFrom), whatsapp(to), body)
}

func whatsapp(addr string) string {
	if strings.HasPrefix(addr, "whatsapp:") {
		return addr
	}
	return "whatsapp:" + addr
}

func (c *MessagingClient) send(ctx context.Context, from, to, body string) error {
	rest, err := c.restClient(ctx)
	if err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	if _, err := rest.Api.CreateMessage(params); err != nil {
		// The provider's own message is what the operator sees.
		var pe *client.TwilioRestError
		if errors.As(err, &pe) && pe.Message != "" {
			return errors.New(pe.Message)
		}
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

// restClient builds a Twilio client whose requests carry ctx.
func (c *MessagingClient) restClient(ctx context.Context) (*twilio.RestClient, error) {
	rt := &requestTransport{ctx: ctx, next: http.DefaultTransport}
	hc := &http.Client{Transport: rt}
	if c.HTTPClient != nil {
		hc.Timeout = c.HTTPClient.Timeout
		if c.HTTPClient.Transport != nil {
			rt.next = c.HTTPClient.Transport
		}
	}
	if c.BaseURL != "" {
		base, err := url.Parse(c.BaseURL)
		if err != nil || base.Host == "" {
			return nil, fmt.Errorf("invalid messaging base URL %q", c.BaseURL)
		}
		rt.base = base
	}

	tc := &client.Client{
		Credentials: client.NewCredentials(c.AccountSID, c.AuthToken),
		HTTPClient:  hc,
	}
	tc.SetAccountSid(c.AccountSID)
	return twilio.NewRestClientWithParams(twilio.ClientParams{Client: tc}), nil
}

// requestTransport binds outgoing requests to a context and optionally
// redirects them to another host.
type requestTransport struct {
	ctx  context.Context
	base *url.URL
	next http.RoundTripper
}

func (t *requestTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(t.ctx)
	if t.base != nil {
		out.URL.Scheme = t.base.Scheme
		out.URL.Host = t.base.Host
		out.URL.Path = strings.TrimSuffix(t.base.Path, "/") + out.URL.Path
		out.Host = ""
	}
	return t.next.RoundTrip(out)
}
