package docbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/zeptools/gw-pdfedit/editor"
	"github.com/zeptools/gw-pdfedit/export"
	"github.com/zeptools/gw-pdfedit/inspector"
	"github.com/zeptools/gw-pdfedit/rw"
)

// ErrBackend - the backend answered but refused the operation
var ErrBackend = errors.New("document backend error")

// TokenSigner issues the bearer token of a call made on behalf of a session
type TokenSigner interface {
	Sign(sessionID string) (string, error)
}

type Client struct {
	*http.Client // [Embedded]
	Conf         *Conf
	Signer       TokenSigner // optional
}

// Ensure Client implements editor.Backend
var _ editor.Backend = (*Client)(nil)

func NewClient(conf *Conf, signer TokenSigner) *Client {
	conf.SetDefaults()
	return &Client{
		Client: &http.Client{Timeout: conf.Timeout()},
		Conf:   conf,
		Signer: signer,
	}
}

// envelope covers every response body of the backend
type envelope struct {
	Success     bool                  `json:"success"`
	Error       string                `json:"error,omitempty"`
	RedirectURL string                `json:"redirect_url,omitempty"`
	SessionID   string                `json:"session_id,omitempty"`
	Files       []editor.File         `json:"files,omitempty"`
	TextBlocks  []inspector.TextBlock `json:"text_blocks,omitempty"`
}

func (c *Client) endpoint(tpl, sessionID string, page int, tool string) string {
	r := strings.NewReplacer(
		"{sid}", url.PathEscape(sessionID),
		"{page}", strconv.Itoa(page),
		"{tool}", url.PathEscape(tool),
	)
	return c.Conf.Host + r.Replace(tpl)
}

// newRequest sets the headers every backend call carries
func (c *Client) newRequest(ctx context.Context, method, url, sessionID string, body io.Reader) (*http.Request, error) {
	upstrReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	upstrReq.Header.Set("Client-Id", c.Conf.ClientID)
	upstrReq.Header.Set("Accept", "application/json")
	if c.Signer != nil {
		token, err := c.Signer.Sign(sessionID)
		if err != nil {
			return nil, fmt.Errorf("sign service token: %w", err)
		}
		upstrReq.Header.Set("Authorization", "Bearer "+token)
	}
	return upstrReq, nil
}

// do sends the request and decodes the envelope. A false success is ErrBackend.
func (c *Client) do(upstrReq *http.Request) (*envelope, error) {
	upstrRes, err := c.Do(upstrReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := upstrRes.Body.Close(); err != nil {
			log.Printf("[WARN][DocBackend] %v", err)
		}
	}()
	var env envelope
	decodeErr := json.NewDecoder(io.LimitReader(upstrRes.Body, 64<<20)).Decode(&env)
	if decodeErr != nil {
		if upstrRes.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: HTTP Status Code: %d", ErrBackend, upstrRes.StatusCode)
		}
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "HTTP Status Code: " + strconv.Itoa(upstrRes.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", ErrBackend, msg)
	}
	return &env, nil
}

func (c *Client) postJSON(ctx context.Context, url, sessionID string, body any) (*envelope, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	upstrReq, err := c.newRequest(ctx, http.MethodPost, url, sessionID, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	upstrReq.Header.Set("Content-Type", "application/json")
	return c.do(upstrReq)
}

// Analyze fetches the text blocks of one page
func (c *Client) Analyze(ctx context.Context, sessionID string, page int) ([]inspector.TextBlock, error) {
	upstrReq, err := c.newRequest(ctx, http.MethodGet, c.endpoint(c.Conf.AnalyzeEndpoint, sessionID, page, ""), sessionID, nil)
	if err != nil {
		return nil, err
	}
	env, err := c.do(upstrReq)
	if err != nil {
		return nil, err
	}
	if env.TextBlocks == nil {
		return []inspector.TextBlock{}, nil
	}
	return env.TextBlocks, nil
}

// Apply sends the exported layers to be burnt into the session's document
func (c *Client) Apply(ctx context.Context, sessionID string, layers []export.Layer) (string, error) {
	env, err := c.postJSON(ctx, c.endpoint(c.Conf.ApplyEndpoint, sessionID, 0, ""), sessionID, export.Payload{Layers: layers})
	if err != nil {
		return "", err
	}
	return env.RedirectURL, nil
}

// Process runs a tool over the session files
func (c *Client) Process(ctx context.Context, tool editor.ToolConfig, sessionID string, req editor.ProcessRequest) (string, error) {
	env, err := c.postJSON(ctx, c.endpoint(c.Conf.ProcessEndpoint, sessionID, 0, tool.ID), sessionID, req)
	if err != nil {
		return "", err
	}
	return env.RedirectURL, nil
}

// Upload streams files as multipart `files[]` parts. An empty sessionID asks the backend for a new session.
func (c *Client) Upload(ctx context.Context, sessionID string, files []editor.Upload) (editor.UploadResult, error) {
	pr, pw := io.Pipe()
	cw := rw.NewCountWriter(pw)
	mw := multipart.NewWriter(cw)
	go func() {
		err := writeUploads(mw, sessionID, files)
		if err == nil {
			log.Printf("[INFO][DocBackend] uploaded %d files, %d bytes", len(files), cw.BytesWritten())
		}
		pw.CloseWithError(err)
	}()

	upstrReq, err := c.newRequest(ctx, http.MethodPost, c.endpoint(c.Conf.UploadEndpoint, sessionID, 0, ""), sessionID, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return editor.UploadResult{}, err
	}
	upstrReq.Header.Set("Content-Type", mw.FormDataContentType())
	env, err := c.do(upstrReq)
	if err != nil {
		_ = pr.CloseWithError(err)
		return editor.UploadResult{}, err
	}
	return editor.UploadResult{SessionID: env.SessionID, Files: env.Files}, nil
}

func writeUploads(mw *multipart.Writer, sessionID string, files []editor.Upload) error {
	if sessionID != "" {
		if err := mw.WriteField("session_id", sessionID); err != nil {
			return err
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files[]"; filename=%q`, f.Name))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err = io.Copy(part, f.Body); err != nil {
			return fmt.Errorf("copy %s: %w", f.Name, err)
		}
	}
	return mw.Close()
}
