package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tracker/internal/dashboard"
	"tracker/internal/henrik"
	"tracker/internal/logging"
	"tracker/internal/match"
)

type handler struct {
	svc  *dashboard.Service
	log  logging.Interface
	opts Options
}

func (h handler) requestContext(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), h.opts.RequestTimeout)
}

func responseErr(ctx *gin.Context, status int, msg string) {
	ctx.JSON(status, gin.H{"error": msg})
}

// upstreamMessage returns the provider's message for logical errors.
func upstreamMessage(err error) (string, bool) {
	var apiErr *henrik.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message, true
	}
	return "", false
}

func (h handler) onAPIMatches() gin.HandlerFunc {
	type matchesQuery struct {
		Region string `form:"region"`
		Name   string `form:"name"`
		Tag    string `form:"tag"`
		Start  int    `form:"start"`
		Size   int    `form:"size"`
	}

	return func(ctx *gin.Context) {
		var req matchesQuery
		if err := ctx.ShouldBindQuery(&req); err != nil {
			responseErr(ctx, http.StatusBadRequest, "Invalid query")
			return
		}
		if req.Name == "" || req.Tag == "" {
			responseErr(ctx, http.StatusBadRequest, "Missing name or tag")
			return
		}
		if !h.svc.HasKey() {
			responseErr(ctx, http.StatusInternalServerError, henrik.ErrMissingKey.Error())
			return
		}
		if req.Size <= 0 {
			req.Size = 10
		}
		if req.Start < 0 {
			req.Start = 0
		}

		requestCtx, cancel := h.requestContext(ctx)
		defer cancel()

		records, err := h.svc.Recent(requestCtx, req.Region, req.Name, req.Tag, req.Start, req.Size)
		if err != nil {
			if msg, ok := upstreamMessage(err); ok {
				ctx.JSON(http.StatusOK, gin.H{"error": msg, "matches": []match.Record{}})
				return
			}
			h.log.Errorf("fetch matches for %s#%s: %v", req.Name, req.Tag, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch matches", "matches": []match.Record{}})
			return
		}

		ctx.JSON(http.StatusOK, gin.H{"matches": records, "count": len(records)})
	}
}

func (h handler) onAPIMatch() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		matchID := ctx.Param("matchId")
		if matchID == "" {
			responseErr(ctx, http.StatusBadRequest, "Missing matchId")
			return
		}
		if !h.svc.HasKey() {
			responseErr(ctx, http.StatusInternalServerError, henrik.ErrMissingKey.Error())
			return
		}

		requestCtx, cancel := h.requestContext(ctx)
		defer cancel()

		rec, err := h.svc.Match(requestCtx, ctx.Query("region"), matchID)
		if err != nil {
			if msg, ok := upstreamMessage(err); ok {
				ctx.JSON(http.StatusOK, gin.H{"error": msg, "match": nil})
				return
			}
			h.log.Errorf("fetch match %s: %v", matchID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch match", "match": nil})
			return
		}

		rounds := rec.Rounds
		if rounds == nil {
			rounds = []match.RoundEvent{}
		}
		ctx.JSON(http.StatusOK, gin.H{"match": rec, "rounds": rounds, "players": rec.Players})
	}
}

func (h handler) setSession(ctx *gin.Context, id string) {
	maxAge := int(h.opts.SessionTTL.Seconds())
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(dashboard.CookieName, id, maxAge, "/", "", false, true)
}

func (h handler) onAPIPlayer() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		name, tag := ctx.Param("name"), ctx.Param("tag")

		requestCtx, cancel := h.requestContext(ctx)
		defer cancel()

		page, err := h.svc.Load(requestCtx, name, tag)
		switch {
		case err == nil:
		case errors.Is(err, henrik.ErrMissingKey):
			responseErr(ctx, http.StatusInternalServerError, henrik.ErrMissingKey.Error())
			return
		case errors.Is(err, dashboard.ErrPlayerNotFound):
			responseErr(ctx, http.StatusNotFound, "Player not found")
			return
		default:
			h.log.Warnf("load %s#%s: %v", name, tag, err)
			if msg, ok := upstreamMessage(err); ok {
				responseErr(ctx, http.StatusBadGateway, msg)
				return
			}
			responseErr(ctx, http.StatusBadGateway, "Failed to fetch player")
			return
		}

		h.setSession(ctx, page.SessionID)
		ctx.JSON(http.StatusOK, page)
	}
}

func (h handler) onAPIMore() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		name, tag := ctx.Param("name"), ctx.Param("tag")
		sessionID, _ := ctx.Cookie(dashboard.CookieName)

		requestCtx, cancel := h.requestContext(ctx)
		defer cancel()

		page, err := h.svc.More(requestCtx, sessionID, name, tag)
		switch {
		case err == nil:
		case errors.Is(err, dashboard.ErrNoSession):
			responseErr(ctx, http.StatusNotFound, "Session expired, reload the player page")
			return
		case errors.Is(err, dashboard.ErrLoadInFlight):
			responseErr(ctx, http.StatusConflict, "Already loading more matches")
			return
		case errors.Is(err, henrik.ErrMissingKey):
			responseErr(ctx, http.StatusInternalServerError, henrik.ErrMissingKey.Error())
			return
		default:
			_ = ctx.Error(err)
			responseErr(ctx, http.StatusInternalServerError, "Failed to load more matches")
			return
		}

		ctx.JSON(http.StatusOK, page)
	}
}

func (h handler) onAPIScoreboard() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		name, tag, matchID := ctx.Param("name"), ctx.Param("tag"), ctx.Param("matchId")
		sessionID, _ := ctx.Cookie(dashboard.CookieName)

		requestCtx, cancel := h.requestContext(ctx)
		defer cancel()

		sb, err := h.svc.Scoreboard(requestCtx, sessionID, name, tag, matchID)
		switch {
		case err == nil:
		case errors.Is(err, dashboard.ErrMatchNotFound):
			responseErr(ctx, http.StatusNotFound, "Match not found")
			return
		case errors.Is(err, henrik.ErrMissingKey):
			responseErr(ctx, http.StatusInternalServerError, henrik.ErrMissingKey.Error())
			return
		default:
			h.log.Warnf("scoreboard %s: %v", matchID, err)
			if msg, ok := upstreamMessage(err); ok {
				responseErr(ctx, http.StatusBadGateway, msg)
				return
			}
			responseErr(ctx, http.StatusBadGateway, "Failed to fetch match")
			return
		}

		ctx.JSON(http.StatusOK, sb)
	}
}
