package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultZeptoURL = "https://api.zeptomail.in/v1.1/email"
	tokenScheme     = "Zoho-enczapikey"
	maxErrorBody    = 64 << 10
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ZeptoConfig configures a ZeptoMail client.
type ZeptoConfig struct {
	URL      string
	Token    string
	From     string
	FromName string
	Timeout  time.Duration
	Client   HTTPDoer
}

// ZeptoMail sends mail through the ZeptoMail REST API.
type ZeptoMail struct {
	url      string
	token    string
	from     string
	fromName string
	timeout  time.Duration
	client   HTTPDoer
}

func NewZeptoMail(cfg ZeptoConfig) (*ZeptoMail, error) {
	if cfg.Token == "" || cfg.From == "" {
		return nil, errors.New("zeptomail: token and from address are required")
	}
	if cfg.URL == "" {
		cfg.URL = DefaultZeptoURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	token := cfg.Token
	if !strings.HasPrefix(token, tokenScheme) {
		token = tokenScheme + " " + token
	}
	return &ZeptoMail{
		url:      cfg.URL,
		token:    token,
		from:     cfg.From,
		fromName: cfg.FromName,
		timeout:  cfg.Timeout,
		client:   cfg.Client,
	}, nil
}

type zeptoAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type zeptoRecipient struct {
	EmailAddress zeptoAddress `json:"email_address"`
}

type zeptoAttachment struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	MimeType string `json:"mime_type"`
}

type zeptoRequest struct {
	From        zeptoAddress      `json:"from"`
	To          []zeptoRecipient  `json:"to"`
	Subject     string            `json:"subject"`
	HTMLBody    string            `json:"htmlbody"`
	Attachments []zeptoAttachment `json:"attachments,omitempty"`
}

type zeptoError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Target  string `json:"target"`
		} `json:"details"`
	} `json:"error"`
}

func (z *ZeptoMail) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	body := zeptoRequest{
		From:     zeptoAddress{Address: z.from, Name: z.fromName},
		To:       []zeptoRecipient{{EmailAddress: zeptoAddress{Address: msg.To, Name: msg.ToName}}},
		Subject:  msg.Subject,
		HTMLBody: msg.HTML,
	}
	for _, a := range msg.Attachments {
		mt := a.MimeType
		if mt == "" {
			mt = "application/octet-stream"
		}
		body.Attachments = append(body.Attachments, zeptoAttachment{
			Name:     a.Name,
			Content:  base64.StdEncoding.EncodeToString(a.Content),
			MimeType: mt,
		})
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("zeptomail: encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, z.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("zeptomail: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", z.token)

	resp, err := z.client.Do(req)
	if err != nil {
		return fmt.Errorf("zeptomail: send: %w", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &Error{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var ze zeptoError
	if json.Unmarshal(data, &ze) == nil && ze.Error.Code != "" {
		apiErr.Code = ze.Error.Code
		apiErr.Message = ze.Error.Message
		if len(ze.Error.Details) > 0 {
			apiErr.Message += ": " + ze.Error.Details[0].Message
		}
	}
	return apiErr
}
