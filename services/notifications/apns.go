package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// providerTokenLifetime is how long a signed APNs provider token is
// reused before a fresh one is generated. Apple accepts tokens up to an
// hour old; refreshing at 50 minutes leaves headroom.
const providerTokenLifetime = 50 * time.Minute

// APNsService sends push notifications to an iOS device through the
// Apple Push Notification service. All failures, from missing
// credentials to transport errors, collapse to a false result; the
// service never panics past its boundary.
type APNsService struct {
	keyID    string
	teamID   string
	bundleID string
	keyPath  string
	baseURL  string

	httpClient *http.Client

	mu        sync.Mutex
	token     string
	tokenTime time.Time

	now func() time.Time
}

// NewAPNsService creates an APNs service
func NewAPNsService(keyID, teamID, bundleID, keyPath string) *APNsService {
	return &APNsService{
		keyID:    keyID,
		teamID:   teamID,
		bundleID: bundleID,
		keyPath:  keyPath,
		baseURL:  "https://api.push.apple.com",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// providerToken returns a signed ES256 provider token, reusing the
// cached one until shortly before its expiry.
func (s *APNsService) providerToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && now.Sub(s.tokenTime) < providerTokenLifetime {
		return s.token, nil
	}

	pemBytes, err := os.ReadFile(s.keyPath)
	if err != nil {
		return "", fmt.Errorf("APNs key not found at %s: %w", s.keyPath, err)
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return "", fmt.Errorf("invalid APNs signing key: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": s.teamID,
		"iat": now.Unix(),
	})
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign APNs token: %w", err)
	}

	s.token = signed
	s.tokenTime = now
	return signed, nil
}

// Send delivers a push notification to a device. Returns false on any
// failure.
func (s *APNsService) Send(deviceToken, title, body string, data map[string]interface{}) bool {
	if s.keyID == "" || s.teamID == "" || deviceToken == "" {
		log.Println("APNs not configured, skipping notification")
		return false
	}

	token, err := s.providerToken()
	if err != nil {
		log.Printf("APNs auth error: %v", err)
		return false
	}

	payload := map[string]interface{}{
		"aps": map[string]interface{}{
			"alert": map[string]string{"title": title, "body": body},
			"sound": "default",
			"badge": 1,
		},
	}
	if data != nil {
		payload["data"] = data
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		log.Printf("APNs payload error: %v", err)
		return false
	}

	url := fmt.Sprintf("%s/3/device/%s", s.baseURL, deviceToken)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		log.Printf("APNs request error: %v", err)
		return false
	}
	req.Header.Set("authorization", "bearer "+token)
	req.Header.Set("apns-topic", s.bundleID)
	req.Header.Set("apns-push-type", "alert")
	req.Header.Set("apns-priority", "10")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("APNs send error: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		log.Printf("Push sent to %s...", truncateToken(deviceToken))
		return true
	}
	respBody, _ := io.ReadAll(resp.Body)
	log.Printf("APNs error %d: %s", resp.StatusCode, string(respBody))
	return false
}

func truncateToken(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}
