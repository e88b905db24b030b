package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	api "github.com/kaamsetu/kaamsetu/api/v1"
	"github.com/kaamsetu/kaamsetu/internal/auth"
	"github.com/kaamsetu/kaamsetu/internal/service"
	"github.com/kaamsetu/kaamsetu/internal/service/mappers"
	"github.com/kaamsetu/kaamsetu/internal/subscription"
	"go.uber.org/zap"
)

// (GET /api/v1/subscriptions/{key})
// Streams snapshots of the live query as server sent events until the client goes away
// or the subscription is cancelled.
func (h *ServiceHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	key, err := h.subscriptionKey(r, user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, errors.New("streaming is not supported"))
		return
	}

	sub, release, err := h.registry.Subscribe(sessionID(r, user), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// the stream is the view: once the client is gone the live query goes too
	defer release()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger := zap.S().Named("subscription_handler")
	var version uint64
	for {
		snapshot, err := sub.Next(r.Context(), version)
		if err != nil {
			if errors.Is(err, subscription.ErrClosed) {
				fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				flusher.Flush()
			}
			logger.Debugw("stream ended", "key", key, "reason", err)
			return
		}
		version = snapshot.Version

		data, err := json.Marshal(snapshotToApi(snapshot))
		if err != nil {
			logger.Errorw("failed to marshal snapshot", "key", key, "error", err)
			continue
		}
		fmt.Fprintf(w, "event: snapshot\nid: %d\ndata: %s\n\n", snapshot.Version, data)
		flusher.Flush()
	}
}

// (DELETE /api/v1/subscriptions/{key})
func (h *ServiceHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	key, err := h.subscriptionKey(r, user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.registry.Unsubscribe(sessionID(r, user), key)
	render.JSON(w, r, api.Status{Message: "unsubscribed"})
}

// (DELETE /api/v1/session)
// Logout: every live query of the session is cancelled.
func (h *ServiceHandler) ReleaseSession(w http.ResponseWriter, r *http.Request) {
	h.registry.Release(sessionID(r, auth.MustHaveUser(r.Context())))
	render.JSON(w, r, api.Status{Message: "session released"})
}

// subscriptionKey parses the key of the route. Per-user queries are only open to their owner.
func (h *ServiceHandler) subscriptionKey(r *http.Request, user auth.User) (subscription.Key, error) {
	key, err := subscription.ParseKey(chi.URLParam(r, "*"))
	if err != nil {
		return "", service.NewErrValidation(err)
	}

	switch key.Kind() {
	case subscription.KindEmployerJobs:
		if key != subscription.EmployerJobsKey(user.ID) {
			return "", service.NewErrRoleForbidden(user.ID, "watch the jobs of another employer")
		}
	case subscription.KindAssignment:
		if key != subscription.AssignmentKey(user.ID) {
			return "", service.NewErrRoleForbidden(user.ID, "watch the assignment of another worker")
		}
	}
	return key, nil
}

func sessionID(r *http.Request, user auth.User) string {
	if s := r.Header.Get(auth.HeaderSessionID); s != "" {
		return s
	}
	return user.ID
}

func snapshotToApi(s *subscription.Snapshot) api.Snapshot {
	snapshot := api.Snapshot{
		Key:       s.Key.String(),
		Version:   s.Version,
		FetchedAt: s.FetchedAt,
	}
	if s.Key.Kind() == subscription.KindApplications {
		snapshot.Applications = mappers.ApplicationListToApi(s.Applications)
	} else {
		snapshot.Jobs = mappers.JobListToApi(s.Jobs)
	}
	return snapshot
}
