package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

const (
	feedWriteTimeout = 10 * time.Second
	feedInterval     = 2 * time.Second
)

// statementFeed streams periodic user-statement snapshots over a websocket
// connection, for operator dashboards that want to watch collateral health
// change in real time instead of polling GET /v1/statement.
func (a *API) statementFeed(w http.ResponseWriter, r *http.Request) {
	user := userKey(r)
	if user == "" {
		http.Error(w, "missing user key", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "feed closed")

	if err := a.streamStatement(r.Context(), conn, user); err != nil {
		if status := websocket.CloseStatus(err); status == -1 {
			_ = conn.Close(websocket.StatusInternalError, "feed error")
		}
	}
}

func (a *API) streamStatement(ctx context.Context, conn *websocket.Conn, user string) error {
	ticker := time.NewTicker(feedInterval)
	defer ticker.Stop()

	for {
		st, err := a.app.Statement(user)
		if err == nil {
			if werr := writeStatementSnapshot(ctx, conn, st.IsHealthy(), st.IsCollateralized()); werr != nil {
				return werr
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func writeStatementSnapshot(ctx context.Context, conn *websocket.Conn, healthy, collateralized bool) error {
	data, err := json.Marshal(map[string]bool{"healthy": healthy, "collateralized": collateralized})
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, feedWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
