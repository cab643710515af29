package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
)

// sigiStatePattern matches the JSON state blob embedded in the live page.
var sigiStatePattern = regexp.MustCompile(`<script id="SIGI_STATE" type="application/json">(.*?)</script>`)

const pageUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// roomOfflineStatus is the live page status value for an offline user.
const roomOfflineStatus = 4

// sigiState is the subset of the page state we need.
type sigiState struct {
	LiveRoom *struct {
		LiveRoomUserInfo struct {
			User struct {
				RoomID string `json:"roomId"`
				Status int    `json:"status"`
			} `json:"user"`
		} `json:"liveRoomUserInfo"`
	} `json:"LiveRoom"`
}

// resolveRoomID fetches the room's live page and extracts the numeric
// room id from the SIGI_STATE blob. It returns ErrRoomOffline when the
// user exists but is not live.
func (d *WebcastDialer) resolveRoomID(ctx context.Context, roomKey string) (string, error) {
	pageURL := fmt.Sprintf(d.cfg.PageURL, roomKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build page request: %w", err)
	}
	req.Header.Set("User-Agent", pageUserAgent)

	resp, err := d.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch live page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch live page: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("read live page: %w", err)
	}

	return extractRoomID(body)
}

// extractRoomID parses the live page HTML for the room id.
func extractRoomID(page []byte) (string, error) {
	match := sigiStatePattern.FindSubmatch(page)
	if match == nil {
		return "", ErrPageBlocked
	}

	var state sigiState
	if err := json.Unmarshal(match[1], &state); err != nil {
		return "", fmt.Errorf("parse SIGI_STATE: %w", err)
	}

	if state.LiveRoom == nil {
		return "", ErrRoomNotFound
	}

	user := state.LiveRoom.LiveRoomUserInfo.User
	if user.RoomID == "" {
		return "", ErrRoomNotFound
	}
	if user.Status == roomOfflineStatus {
		return "", ErrRoomOffline
	}

	return user.RoomID, nil
}
