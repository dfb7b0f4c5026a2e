package appium

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// writeJSON encodes data as JSON to the response writer.
func writeJSON(w http.ResponseWriter, data interface{}) {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func TestClient_Connect(t *testing.T) {
	var gotCaps map[string]interface{}
	var settingsCalled bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session" && r.Method == "POST" {
			var body struct {
				Capabilities struct {
					AlwaysMatch map[string]interface{} `json:"alwaysMatch"`
				} `json:"capabilities"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			gotCaps = body.Capabilities.AlwaysMatch
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{
					"sessionId": "test-session-123",
					"capabilities": map[string]interface{}{
						"platformName":    "Android",
						"platformVersion": "14",
					},
				},
			})
			return
		}
		if r.URL.Path == "/session/test-session-123/appium/settings" {
			settingsCalled = true
			writeJSON(w, map[string]interface{}{"value": nil})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	err := client.Connect(context.Background(), map[string]interface{}{
		"platformName":      "Android",
		"appium:deviceName": "867400022047199",
	})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if client.SessionID() != "test-session-123" {
		t.Errorf("Expected sessionID 'test-session-123', got '%s'", client.SessionID())
	}
	if client.Platform() != "android" {
		t.Errorf("Expected platform 'android', got '%s'", client.Platform())
	}
	if gotCaps["appium:deviceName"] != "867400022047199" {
		t.Errorf("alwaysMatch capabilities = %v", gotCaps)
	}
	if !settingsCalled {
		t.Error("settings endpoint was not called")
	}
	if client.Capabilities()["platformVersion"] != "14" {
		t.Errorf("Capabilities() = %v", client.Capabilities())
	}
}

func TestClient_Connect_SessionNotCreated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{
				"error":   "session not created",
				"message": "Could not find a connected Android device",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Connect(context.Background(), map[string]interface{}{})
	if err == nil {
		t.Fatal("expected error")
	}

	var wdErr *WebDriverError
	if !errors.As(err, &wdErr) {
		t.Fatalf("expected WebDriverError, got %T: %v", err, err)
	}
	if wdErr.Code != "session not created" || wdErr.Status != http.StatusInternalServerError {
		t.Errorf("unexpected error: %+v", wdErr)
	}
}

func TestClient_Connect_NoSessionID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"value": map[string]interface{}{}})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.Connect(context.Background(), map[string]interface{}{}); err == nil {
		t.Error("expected error for missing session id")
	}
}

func TestClient_Disconnect(t *testing.T) {
	deleteCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session" && r.Method == "DELETE" {
			deleteCalled = true
			writeJSON(w, map[string]interface{}{"value": nil})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "test-session"

	if err := client.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if !deleteCalled {
		t.Error("DELETE /session was not called")
	}
	if client.sessionID != "" {
		t.Error("sessionID should be cleared after disconnect")
	}

	// Second call is a no-op
	deleteCalled = false
	if err := client.Disconnect(context.Background()); err != nil {
		t.Fatalf("second Disconnect failed: %v", err)
	}
	if deleteCalled {
		t.Error("DELETE should not be sent without a session")
	}
}

func TestClient_FindElement(t *testing.T) {
	var gotUsing, gotValue string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session/element" && r.Method == "POST" {
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			gotUsing, gotValue = body["using"], body["value"]
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{
					"element-6066-11e4-a52e-4f735466cecf": "elem-123",
				},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "test-session"

	elemID, err := client.FindElement(context.Background(), "accessibility id", "Network & internet")
	if err != nil {
		t.Fatalf("FindElement failed: %v", err)
	}
	if elemID != "elem-123" {
		t.Errorf("Expected element ID 'elem-123', got '%s'", elemID)
	}
	if gotUsing != "accessibility id" || gotValue != "Network & internet" {
		t.Errorf("request = (%q, %q)", gotUsing, gotValue)
	}
}

func TestClient_FindElement_LegacyID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{"ELEMENT": "legacy-1"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "s"

	id, err := client.FindElement(context.Background(), "id", "android:id/button1")
	if err != nil {
		t.Fatalf("FindElement failed: %v", err)
	}
	if id != "legacy-1" {
		t.Errorf("id = %q, want legacy-1", id)
	}
}

func TestClient_FindElement_NoSuchElement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{
				"error":   "no such element",
				"message": "An element could not be located on the page using the given search parameters.",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "test-session"

	_, err := client.FindElement(context.Background(), "xpath", `//*[@text="Roaming"]`)
	var wdErr *WebDriverError
	if !errors.As(err, &wdErr) || wdErr.Code != "no such element" {
		t.Fatalf("expected no such element, got %v", err)
	}
}

func TestClient_ClickElement(t *testing.T) {
	clicked := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/s/element/e1/click" && r.Method == "POST" {
			clicked = true
			writeJSON(w, map[string]interface{}{"value": nil})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "s"

	if err := client.ClickElement(context.Background(), "e1"); err != nil {
		t.Fatalf("ClickElement failed: %v", err)
	}
	if !clicked {
		t.Error("click endpoint was not called")
	}
}

func TestClient_GetElementAttribute(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"string", "Network & internet", "Network & internet"},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"null", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/session/s/element/e1/attribute/content-desc" {
					writeJSON(w, map[string]interface{}{"value": tt.value})
					return
				}
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			client := NewClient(server.URL)
			client.sessionID = "s"

			got, err := client.GetElementAttribute(context.Background(), "e1", "content-desc")
			if err != nil {
				t.Fatalf("GetElementAttribute failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClient_GetElementText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/s/element/e1/text" {
			writeJSON(w, map[string]interface{}{"value": "2.41 GB used"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "s"

	text, err := client.GetElementText(context.Background(), "e1")
	if err != nil {
		t.Fatalf("GetElementText failed: %v", err)
	}
	if text != "2.41 GB used" {
		t.Errorf("text = %q", text)
	}
}

func TestClient_DisplayedEnabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session/s/element/e1/displayed":
			writeJSON(w, map[string]interface{}{"value": true})
		case "/session/s/element/e1/enabled":
			writeJSON(w, map[string]interface{}{"value": false})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "s"

	displayed, err := client.IsElementDisplayed(context.Background(), "e1")
	if err != nil || !displayed {
		t.Errorf("IsElementDisplayed = %v, %v", displayed, err)
	}
	enabled, err := client.IsElementEnabled(context.Background(), "e1")
	if err != nil || enabled {
		t.Errorf("IsElementEnabled = %v, %v", enabled, err)
	}
}

func TestClient_Screenshot(t *testing.T) {
	png := []byte{0x89, 0x50, 0x4E, 0x47}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/s/screenshot" {
			writeJSON(w, map[string]interface{}{"value": base64.StdEncoding.EncodeToString(png)})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "s"

	data, err := client.Screenshot(context.Background())
	if err != nil {
		t.Fatalf("Screenshot failed: %v", err)
	}
	if string(data) != string(png) {
		t.Errorf("data = %v, want %v", data, png)
	}
}

func TestClient_NonJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "s"

	if _, err := client.Screenshot(context.Background()); err == nil {
		t.Error("expected parse error")
	}
}

func TestClient_HTTPErrorWithoutPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, map[string]interface{}{"value": nil})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "s"

	err := client.ClickElement(context.Background(), "e1")
	var wdErr *WebDriverError
	if !errors.As(err, &wdErr) || wdErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected WebDriverError with status 500, got %v", err)
	}
}
