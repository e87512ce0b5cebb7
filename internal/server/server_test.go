package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	perrors "github.com/matzehuels/panorama/pkg/errors"
	"github.com/matzehuels/panorama/pkg/gallery"
	"github.com/matzehuels/panorama/pkg/item"
	"github.com/matzehuels/panorama/pkg/session"
)

var testItems = []item.Item{
	{ID: "harbour", URL: "https://cdn.example.com/harbour.jpg", Width: 30, Height: 20, Caption: "Harbour"},
	{ID: "dunes", URL: "/img/dunes.jpg", Width: 20, Height: 10},
	{ID: "pier", URL: "/img/pier.jpg", Width: 10, Height: 12},
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := session.Config{Width: 1280, Height: 800, FrameInterval: time.Millisecond}
	s, err := New(context.Background(), cfg, testItems, WithLogger(log.New(io.Discard)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func createView(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := do(t, http.MethodPost, ts.URL+"/api/views", sizeRequest{Width: 1280, Height: 800})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create view: status %d", resp.StatusCode)
	}
	v := decodeBody[viewResponse](t, resp)
	if v.ID == "" || len(v.Frame.Items) != len(testItems) {
		t.Fatalf("create view: %+v", v)
	}
	return v.ID
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestLayoutFormats(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		format      string
		status      int
		contentType string
	}{
		{"", http.StatusOK, "application/json"},
		{"dot", http.StatusOK, "text/vnd.graphviz"},
		{"png", http.StatusNotImplemented, "application/json"},
		{"gif", http.StatusBadRequest, "application/json"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp := do(t, http.MethodGet, ts.URL+"/api/layout?format="+tt.format, nil)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if ct := resp.Header.Get("Content-Type"); ct != tt.contentType {
				t.Errorf("content type = %q, want %q", ct, tt.contentType)
			}
		})
	}
}

func TestViewLifecycle(t *testing.T) {
	s, ts := newTestServer(t)
	id := createView(t, ts)
	base := ts.URL + "/api/views/" + id

	resp := do(t, http.MethodGet, base, nil)
	f := decodeBody[gallery.Frame](t, resp)
	if f.Width != 1280 || f.Zoom != 1 {
		t.Errorf("frame = %vx zoom %v", f.Width, f.Zoom)
	}

	resp = do(t, http.MethodDelete, base, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	if s.store.Len() != 0 {
		t.Errorf("store still holds %d views", s.store.Len())
	}

	resp = do(t, http.MethodGet, base, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete: status = %d", resp.StatusCode)
	}
	e := decodeBody[errorResponse](t, resp)
	if e.Code != "VIEW_NOT_FOUND" {
		t.Errorf("code = %s", e.Code)
	}
}

func TestPointerPans(t *testing.T) {
	_, ts := newTestServer(t)
	base := ts.URL + "/api/views/" + createView(t, ts)

	before := decodeBody[gallery.Frame](t, do(t, http.MethodGet, base, nil))
	for _, ev := range []pointerRequest{
		{ID: 1, Kind: "down", X: 600, Y: 400},
		{ID: 1, Kind: "move", X: 580, Y: 400},
		{ID: 1, Kind: "move", X: 560, Y: 400},
		{ID: 1, Kind: "up", X: 560, Y: 400},
	} {
		resp := do(t, http.MethodPost, base+"/pointer", ev)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status %d", ev.Kind, resp.StatusCode)
		}
	}
	after := decodeBody[gallery.Frame](t, do(t, http.MethodGet, base, nil))
	if after.Center.X <= before.Center.X {
		t.Errorf("dragging left should move the camera right: %v -> %v", before.Center.X, after.Center.X)
	}

	resp := do(t, http.MethodPost, base+"/pointer", pointerRequest{Kind: "hover"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown kind: status = %d", resp.StatusCode)
	}
}

func TestWheelZooms(t *testing.T) {
	_, ts := newTestServer(t)
	base := ts.URL + "/api/views/" + createView(t, ts)

	f := decodeBody[gallery.Frame](t, do(t, http.MethodPost, base+"/wheel", wheelRequest{X: 640, Y: 400, DeltaY: -100}))
	if f.Zoom <= 1 {
		t.Errorf("zoom = %v, want > 1", f.Zoom)
	}
}

func TestActivateAnimates(t *testing.T) {
	_, ts := newTestServer(t)
	base := ts.URL + "/api/views/" + createView(t, ts)

	resp := do(t, http.MethodPost, base+"/activate", activateRequest{Item: "harbour"})
	got := decodeBody[acceptedResponse](t, resp)
	if !got.Accepted || got.Frame.Selected != "harbour" {
		t.Fatalf("activate = %+v", got)
	}
	if got.Frame.Panel != 400 {
		t.Errorf("panel = %v, want 400", got.Frame.Panel)
	}

	// The ticker drives the transition to the fitted zoom.
	deadline := time.Now().Add(5 * time.Second)
	for {
		f := decodeBody[gallery.Frame](t, do(t, http.MethodGet, base, nil))
		if f.Zoom > 1.5 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("zoom stuck at %v", f.Zoom)
		}
		time.Sleep(20 * time.Millisecond)
	}

	resp = do(t, http.MethodPost, base+"/activate", activateRequest{Item: "nope"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown item: status = %d, want 404", resp.StatusCode)
	}
	if e := decodeBody[errorResponse](t, resp); e.Code != perrors.ErrCodeItemNotFound {
		t.Errorf("unknown item: code = %s", e.Code)
	}
	f := decodeBody[gallery.Frame](t, do(t, http.MethodGet, base, nil))
	if f.Selected != "harbour" {
		t.Errorf("selection after unknown item = %q, want harbour", f.Selected)
	}
}

func TestResetTokens(t *testing.T) {
	_, ts := newTestServer(t)
	base := ts.URL + "/api/views/" + createView(t, ts)

	first := decodeBody[acceptedResponse](t, do(t, http.MethodPost, base+"/reset", resetRequest{Token: 2}))
	again := decodeBody[acceptedResponse](t, do(t, http.MethodPost, base+"/reset", resetRequest{Token: 2}))
	if !first.Accepted || again.Accepted {
		t.Errorf("accepted = %v, %v; want true, false", first.Accepted, again.Accepted)
	}
}

func TestLoadFailureAndSnapshot(t *testing.T) {
	_, ts := newTestServer(t)
	base := ts.URL + "/api/views/" + createView(t, ts)

	f := decodeBody[gallery.Frame](t, do(t, http.MethodPost, base+"/load", loadRequest{Item: "dunes", Error: "404"}))
	v, _ := f.Find("dunes")
	if v.Status != gallery.StatusFailed {
		t.Errorf("status = %v, want failed", v.Status)
	}

	resp := do(t, http.MethodGet, base+"/snapshot?format=svg", nil)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("X-Cache") != "miss" {
		t.Fatalf("first snapshot: status %d cache %q", resp.StatusCode, resp.Header.Get("X-Cache"))
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "image unavailable") {
		t.Error("failed item should render as placeholder")
	}

	resp = do(t, http.MethodGet, base+"/snapshot?format=svg", nil)
	if resp.Header.Get("X-Cache") != "hit" {
		t.Errorf("second snapshot: cache %q", resp.Header.Get("X-Cache"))
	}

	resp = do(t, http.MethodGet, base+"/snapshot?format=png", nil)
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("png content type = %q", ct)
	}
	resp = do(t, http.MethodGet, base+"/snapshot?format=dot", nil)
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("dot snapshot: status = %d", resp.StatusCode)
	}
}

func TestSetItemsUpdatesViews(t *testing.T) {
	s, ts := newTestServer(t)
	base := ts.URL + "/api/views/" + createView(t, ts)

	if err := s.SetItems(testItems[:1]); err != nil {
		t.Fatal(err)
	}
	f := decodeBody[gallery.Frame](t, do(t, http.MethodGet, base, nil))
	if len(f.Items) != 1 {
		t.Errorf("items = %d, want 1", len(f.Items))
	}
	if err := s.SetItems([]item.Item{{ID: "bad"}}); err == nil {
		t.Error("invalid items accepted")
	}
}

func TestSnapshotAfterItemEdit(t *testing.T) {
	s, ts := newTestServer(t)
	base := ts.URL + "/api/views/" + createView(t, ts)

	resp := do(t, http.MethodGet, base+"/snapshot?format=json", nil)
	if resp.Header.Get("X-Cache") != "miss" {
		t.Fatalf("first snapshot: cache %q", resp.Header.Get("X-Cache"))
	}
	io.Copy(io.Discard, resp.Body)

	// Same IDs and sizes, so the layout and camera are unchanged.
	edited := append([]item.Item(nil), testItems...)
	edited[0].URL = "https://cdn.example.com/harbour-v2.jpg"
	edited[1].Caption = "Dunes at dusk"
	if err := s.SetItems(edited); err != nil {
		t.Fatal(err)
	}

	resp = do(t, http.MethodGet, base+"/snapshot?format=json", nil)
	if resp.Header.Get("X-Cache") != "miss" {
		t.Errorf("snapshot after edit: cache %q, want miss", resp.Header.Get("X-Cache"))
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "harbour-v2.jpg") {
		t.Error("snapshot should carry the edited URL")
	}
	if !strings.Contains(string(body), "Dunes at dusk") {
		t.Error("snapshot should carry the edited caption")
	}
}

func TestSnapshotOptsContent(t *testing.T) {
	f := gallery.Frame{Zoom: 1, Width: 1280, Height: 800}
	opts := gallery.Options{}.WithDefaults()
	base := snapshotOpts(f, testItems, opts, "svg")

	edited := append([]item.Item(nil), testItems...)
	edited[2].Alt = "Pier at low tide"
	if snapshotOpts(f, edited, opts, "svg").Items == base.Items {
		t.Error("alt text should change the item digest")
	}

	wider := opts
	wider.PanelWidth = 480
	if snapshotOpts(f, testItems, wider, "svg").Options == base.Options {
		t.Error("panel width should change the options digest")
	}
	scaled := opts
	scaled.UnitToPixel *= 2
	if snapshotOpts(f, testItems, scaled, "svg").Options == base.Options {
		t.Error("unit scale should change the options digest")
	}
}

func TestBadPointerKind(t *testing.T) {
	_, ts := newTestServer(t)
	base := ts.URL + "/api/views/" + createView(t, ts)

	resp := do(t, http.MethodPost, base+"/pointer", pointerRequest{ID: 1, Kind: "hover", X: 10, Y: 10})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if e := decodeBody[errorResponse](t, resp); e.Code != perrors.ErrCodeInvalidInput {
		t.Errorf("code = %s", e.Code)
	}

	resp = do(t, http.MethodPost, base+"/pointer", pointerRequest{ID: 1, Kind: "down", X: 10, Y: 10})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("down: status = %d", resp.StatusCode)
	}
}

func TestBadBody(t *testing.T) {
	_, ts := newTestServer(t)
	base := ts.URL + "/api/views/" + createView(t, ts)

	req, _ := http.NewRequest(http.MethodPost, base+"/wheel", strings.NewReader(`{"zoom":2}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"VIEW_NOT_FOUND", http.StatusNotFound},
		{"ITEM_NOT_FOUND", http.StatusNotFound},
		{"INVALID_INPUT", http.StatusBadRequest},
		{"INVALID_FORMAT", http.StatusBadRequest},
		{"UNSUPPORTED", http.StatusNotImplemented},
		{"INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(perrorsCode(tt.code)); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func perrorsCode(s string) perrors.Code { return perrors.Code(s) }
