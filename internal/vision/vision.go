// Package vision talks to the camera snapshot endpoint and to the sidecar
// that runs face recognition and AprilTag detection on a frame.
package vision

import (
	"context"
	"fmt"
	"time"

	"smartstorage/pkg/client"
	"smartstorage/pkg/model"
)

const (
	pathIdentify = "/identify"
	pathScan     = "/scan"

	contentTypeJPEG = "image/jpeg"

	kindNoFace model.IdentityKind = "none"
)

// Camera fetches the current frame from a snapshot URL.
type Camera struct {
	http *client.HttpClient
}

func NewCamera(snapshotURL string, timeout time.Duration) *Camera {
	return &Camera{http: client.NewHttpClient(snapshotURL, timeout)}
}

func (c *Camera) Capture(ctx context.Context) ([]byte, error) {
	resp, err := c.http.GET(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("capture frame: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("capture frame: %s", client.GetErrorMessage(resp))
	}
	if len(resp.Body) == 0 {
		return nil, fmt.Errorf("capture frame: empty body")
	}
	return resp.Body, nil
}

type identifyResponse struct {
	Kind model.IdentityKind `json:"kind"`
	Name string             `json:"name"`
}

type scanResponse struct {
	Found bool   `json:"found"`
	Tag   string `json:"tag"`
}

// Sidecar is the recognition service client.
type Sidecar struct {
	http *client.HttpClient
}

func NewSidecar(baseURL string, timeout time.Duration) *Sidecar {
	return &Sidecar{http: client.NewHttpClient(baseURL, timeout)}
}

// Identify classifies the person in frame. ok is false when no face is
// visible. A resident answer without a name is treated as unknown.
func (s *Sidecar) Identify(ctx context.Context, frame []byte) (model.Identity, bool, error) {
	resp, err := s.http.POSTRaw(ctx, pathIdentify, contentTypeJPEG, frame)
	if err != nil {
		return model.Identity{}, false, fmt.Errorf("identify: %w", err)
	}
	if !resp.OK() {
		return model.Identity{}, false, fmt.Errorf("identify: %s", client.GetErrorMessage(resp))
	}

	var out identifyResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return model.Identity{}, false, fmt.Errorf("identify: decode response: %w", err)
	}

	switch out.Kind {
	case kindNoFace, "":
		return model.Identity{}, false, nil
	case model.IdentityResident:
		if out.Name == "" {
			return model.Unknown(), true, nil
		}
		return model.Resident(out.Name), true, nil
	case model.IdentityCarrier:
		return model.Carrier(), true, nil
	case model.IdentityUnknown:
		return model.Unknown(), true, nil
	default:
		return model.Identity{}, false, fmt.Errorf("identify: unexpected kind %q", out.Kind)
	}
}

// Scan reports the tag visible in frame, if any.
func (s *Sidecar) Scan(ctx context.Context, frame []byte) (string, bool, error) {
	resp, err := s.http.POSTRaw(ctx, pathScan, contentTypeJPEG, frame)
	if err != nil {
		return "", false, fmt.Errorf("scan: %w", err)
	}
	if !resp.OK() {
		return "", false, fmt.Errorf("scan: %s", client.GetErrorMessage(resp))
	}

	var out scanResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return "", false, fmt.Errorf("scan: decode response: %w", err)
	}
	if !out.Found || out.Tag == "" {
		return "", false, nil
	}
	return out.Tag, true, nil
}
