package router

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/blogware/blog-backend/common"
	"github.com/blogware/blog-backend/db"
	"github.com/blogware/blog-backend/log"
)

// viewWindow is the suppression window: a repeat view from the same visitor
// within it is not recounted.
const viewWindow = 10 * time.Minute

// lookupGeo is a hook so tests do not reach the network.
var lookupGeo = common.LookupGeo

// RecordView logs a view of a post and bumps its counter at most once per
// visitor within the suppression window. The visitor key is the caller's
// user id when authenticated, otherwise the per-session token.
func RecordView() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		slug := mux.Vars(r)["slug"]
		if _, err := rc.store.PostBySlug(r.Context(), slug); err != nil {
			return handleStoreError(err, "record view on", "post")
		}

		sessionID := visitorSession(w, r)
		visitorKey := sessionID
		var userID *primitive.ObjectID
		if rc.user != nil {
			if id, err := primitive.ObjectIDFromHex(rc.user.ID); err == nil {
				userID = &id
				visitorKey = rc.user.ID
			}
		}

		ip := common.GetIPAddr(r)
		uaRaw := r.Header.Get("User-Agent")
		if uaRaw == "" {
			uaRaw = "unknown"
		}
		referer := r.Header.Get("Referer")
		if referer == "" {
			referer = "direct"
		}

		ci := common.ParseUserAgent(uaRaw)

		// Enrichment is best effort, a failed lookup never blocks the count.
		geo, err := lookupGeo(ip)
		if err != nil {
			log.Warn.Printf("geo lookup for %s: %v", ip, err)
		}

		v := &db.ViewDetail{
			Slug:      slug,
			UserID:    userID,
			SessionID: sessionID,
			IP:        ip,
			UserAgent: uaRaw,
			Device:    ci.Device,
			Browser:   ci.Browser,
			OS:        ci.OS,
			Country:   geo.Country,
			Region:    geo.Region,
			City:      geo.City,
			Referer:   referer,
		}

		counted, err := rc.store.RecordView(r.Context(), v, visitorKey, viewWindow)
		if err != nil {
			return handleStoreError(err, "record view on", "post")
		}

		return writeJSON(w, http.StatusOK, ViewResponse{Status: "logged", Counted: counted})
	}
}

// PostAnalytics serves the view log of a post. Admin only.
func PostAnalytics() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		slug := mux.Vars(r)["slug"]

		p, err := rc.store.PostBySlug(r.Context(), slug)
		if err != nil {
			return handleStoreError(err, "fetch", "post")
		}

		views, err := rc.store.ViewsBySlug(r.Context(), slug)
		if err != nil {
			return handleStoreError(err, "fetch analytics for", "post")
		}

		return writeJSON(w, http.StatusOK, AnalyticsResponse{
			Views:       p.Views,
			ViewDetails: views,
		})
	}
}
