// Package client is the HTTP client for the BeamIT server API, used by
// the beamctl command.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/beamit-app/beamit-server/internal/server/models"
)

// Credentials is the (username, devicename, token) triple issued by
// login, cached on disk between invocations.
type Credentials struct {
	Username   string `json:"username"`
	DeviceName string `json:"devicename"`
	Token      string `json:"token"`
}

type Client struct {
	base  string
	creds Credentials
	http  *http.Client
}

func New(base string, creds Credentials) *Client {
	return &Client{
		base:  base,
		creds: creds,
		http:  &http.Client{Timeout: 30 * time.Second},
	}
}

// envelope mirrors the server's response shape.
type envelope struct {
	Message string          `json:"message"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, authed bool, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		c.authorize(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp, out)
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("X-Beamit-Username", c.creds.Username)
	req.Header.Set("X-Beamit-Device", c.creds.DeviceName)
	req.Header.Set("Authorization", "Bearer "+c.creds.Token)
}

func decodeEnvelope(resp *http.Response, out any) error {
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("server: %s", env.Message)
	}
	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("error decoding response data: %w", err)
		}
	}
	return nil
}

func (c *Client) Register(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.doJSON(ctx, http.MethodPost, "/user/register", body, false, nil)
}

// Login authenticates with the password and returns the fresh device
// credentials; the caller is responsible for caching them.
func (c *Client) Login(ctx context.Context, username, password, deviceName string) (Credentials, error) {
	body := map[string]string{"username": username, "password": password, "devicename": deviceName}
	var creds Credentials
	if err := c.doJSON(ctx, http.MethodPost, "/user/login", body, false, &creds); err != nil {
		return Credentials{}, err
	}
	c.creds = creds
	return creds, nil
}

func (c *Client) Unregister(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/user/unregister", struct{}{}, true, nil)
}

func (c *Client) Devices(ctx context.Context) ([]string, error) {
	var out struct {
		Devices []string `json:"devices"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/device/list", nil, true, &out); err != nil {
		return nil, err
	}
	return out.Devices, nil
}

func (c *Client) RenameDevice(ctx context.Context, deviceName, newName string) error {
	body := map[string]string{"devicename": deviceName, "newname": newName}
	return c.doJSON(ctx, http.MethodPost, "/device/rename", body, true, nil)
}

func (c *Client) RemoveDevice(ctx context.Context, deviceName string) error {
	body := map[string]string{"devicename": deviceName}
	return c.doJSON(ctx, http.MethodPost, "/device/remove", body, true, nil)
}

type sendRequest struct {
	Targets   []string `json:"targets"`
	Text      string   `json:"text,omitempty"`
	URL       string   `json:"url,omitempty"`
	AutoOpen  bool     `json:"autoOpen"`
	Encrypted bool     `json:"encrypted"`
}

func (c *Client) SendText(ctx context.Context, targets []string, text string, autoOpen bool) (*models.ShareID, error) {
	return c.send(ctx, sendRequest{Targets: targets, Text: text, AutoOpen: autoOpen})
}

func (c *Client) SendURL(ctx context.Context, targets []string, url string, autoOpen bool) (*models.ShareID, error) {
	return c.send(ctx, sendRequest{Targets: targets, URL: url, AutoOpen: autoOpen})
}

func (c *Client) send(ctx context.Context, req sendRequest) (*models.ShareID, error) {
	var id models.ShareID
	if err := c.doJSON(ctx, http.MethodPost, "/share/send", req, true, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// SendFile uploads path as a multipart request and fans it out to targets.
func (c *Client) SendFile(ctx context.Context, targets []string, path string, autoOpen bool) (*models.ShareID, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("targets", braceList(targets)); err != nil {
		return nil, err
	}
	if autoOpen {
		if err := mw.WriteField("autoOpen", "true"); err != nil {
			return nil, err
		}
	}
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/share/send", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var id models.ShareID
	if err := decodeEnvelope(resp, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

func (c *Client) Pending(ctx context.Context) ([]*models.Share, error) {
	var out struct {
		Shares []*models.Share `json:"shares"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/share/pending", nil, true, &out); err != nil {
		return nil, err
	}
	return out.Shares, nil
}

// Received is the result of consuming a share: the snapshot for text and
// url payloads, or the payload bytes written to Filename for files.
type Received struct {
	Share     *models.Share
	Remaining int
	Filename  string
}

// Receive consumes the share identified by its creation timestamp. A
// file payload is written to the current directory under its original
// name.
func (c *Client) Receive(ctx context.Context, timestamp time.Time) (*Received, error) {
	b, err := json.Marshal(map[string]any{"timestamp": timestamp})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/share/receive", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.Header.Get("Content-Type") == "application/octet-stream" {
		filename := attachmentFilename(resp.Header.Get("Content-Disposition"))
		out, err := os.Create(filepath.Base(filename))
		if err != nil {
			return nil, err
		}
		defer out.Close()
		if _, err := io.Copy(out, resp.Body); err != nil {
			return nil, err
		}
		return &Received{Filename: out.Name()}, nil
	}

	var data struct {
		Share     *models.Share `json:"share"`
		Remaining int           `json:"remaining"`
	}
	if err := decodeEnvelope(resp, &data); err != nil {
		return nil, err
	}
	return &Received{Share: data.Share, Remaining: data.Remaining}, nil
}
