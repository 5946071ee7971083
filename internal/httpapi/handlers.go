package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"

	"github.com/DoyleJ11/siege-picker/internal/hub"
	"github.com/DoyleJ11/siege-picker/internal/lineup"
	"github.com/DoyleJ11/siege-picker/internal/operator"
	"github.com/DoyleJ11/siege-picker/internal/ownership"
	"github.com/DoyleJ11/siege-picker/internal/profile"
	"github.com/DoyleJ11/siege-picker/internal/theme"
	pub "github.com/DoyleJ11/siege-picker/pkg/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func ListOperators(c *operator.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := operator.ParseFilter(r.URL.Query().Get("role"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c.Filter(f))
	}
}

func GetOperator(c *operator.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op, ok := c.Get(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, profile.ErrUnknownOperator)
			return
		}
		writeJSON(w, http.StatusOK, op)
	}
}

func CreateProfile(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			if _, err := h.Get(r.Context(), c); errors.Is(err, hub.ErrUnavailable) {
				code = c
				break
			}
			log.Debug("collision on code, regenerating", zap.String("profile", c))
		}

		if _, err := h.Ensure(r.Context(), code); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, pub.ProfileCreated{Code: code})
	}
}

// profileHandler resolves {code} to an open profile before calling fn.
type profileHandler func(w http.ResponseWriter, r *http.Request, p *profile.Profile)

func withProfile(h *hub.Hub, fn profileHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := hub.NormalizeCode(chi.URLParam(r, "code"))
		if err != nil {
			writeError(w, err)
			return
		}
		p, err := h.Ensure(r.Context(), code)
		if err != nil {
			writeError(w, err)
			return
		}
		fn(w, r, p)
	}
}

func GetOwnership(h *hub.Hub) http.HandlerFunc {
	return withProfile(h, func(w http.ResponseWriter, r *http.Request, p *profile.Profile) {
		writeState(w, r, p)
	})
}

// ImportOwnership replaces the owned set with the JSON array in the body.
func ImportOwnership(h *hub.Hub) http.HandlerFunc {
	return withProfile(h, func(w http.ResponseWriter, r *http.Request, p *profile.Profile) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		apply(w, r, p, profile.Command{Type: profile.CmdImport, Payload: body})
	})
}

func SelectAll(h *hub.Hub) http.HandlerFunc {
	return withProfile(h, func(w http.ResponseWriter, r *http.Request, p *profile.Profile) {
		apply(w, r, p, profile.Command{Type: profile.CmdSelectAll})
	})
}

func DeselectAll(h *hub.Hub) http.HandlerFunc {
	return withProfile(h, func(w http.ResponseWriter, r *http.Request, p *profile.Profile) {
		apply(w, r, p, profile.Command{Type: profile.CmdDeselectAll})
	})
}

func AddOperator(h *hub.Hub) http.HandlerFunc {
	return withProfile(h, func(w http.ResponseWriter, r *http.Request, p *profile.Profile) {
		apply(w, r, p, profile.Command{Type: profile.CmdAdd, OperatorID: chi.URLParam(r, "id")})
	})
}

func RemoveOperator(h *hub.Hub) http.HandlerFunc {
	return withProfile(h, func(w http.ResponseWriter, r *http.Request, p *profile.Profile) {
		apply(w, r, p, profile.Command{Type: profile.CmdRemove, OperatorID: chi.URLParam(r, "id")})
	})
}

func ToggleOperator(h *hub.Hub) http.HandlerFunc {
	return withProfile(h, func(w http.ResponseWriter, r *http.Request, p *profile.Profile) {
		apply(w, r, p, profile.Command{Type: profile.CmdToggle, OperatorID: chi.URLParam(r, "id")})
	})
}

func GetTheme(h *hub.Hub) http.HandlerFunc {
	return withProfile(h, func(w http.ResponseWriter, r *http.Request, p *profile.Profile) {
		v, err := p.State(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pub.ThemeBody{Theme: string(v.Theme)})
	})
}

func SetTheme(h *hub.Hub) http.HandlerFunc {
	return withProfile(h, func(w http.ResponseWriter, r *http.Request, p *profile.Profile) {
		var body pub.ThemeBody
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		t, err := theme.Parse(body.Theme)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := p.Do(r.Context(), profile.Command{Type: profile.CmdSetTheme, Theme: t}); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pub.ThemeBody{Theme: string(t)})
	})
}

// RollLineup draws a random lineup. Not having enough owned operators is a
// 409 and changes nothing.
func RollLineup(h *hub.Hub) http.HandlerFunc {
	return withProfile(h, func(w http.ResponseWriter, r *http.Request, p *profile.Profile) {
		var req pub.LineupRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.StartingSide == "" {
			req.StartingSide = string(lineup.SideAttack)
		}
		start, err := lineup.ParseSide(req.StartingSide)
		if err != nil {
			writeError(w, err)
			return
		}

		slots, err := p.RollLineup(r.Context(), start)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pub.FromSlots(start, slots))
	})
}

func apply(w http.ResponseWriter, r *http.Request, p *profile.Profile, cmd profile.Command) {
	if err := p.Do(r.Context(), cmd); err != nil {
		writeError(w, err)
		return
	}
	writeState(w, r, p)
}

func writeState(w http.ResponseWriter, r *http.Request, p *profile.Profile) {
	v, err := p.State(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pub.FromView(p.Code(), v))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeJSON(w, status, pub.Error{Code: code, Message: err.Error()})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ownership.ErrInvalidFormat):
		return http.StatusBadRequest, "invalid_format"
	case errors.Is(err, lineup.ErrInsufficientOperators):
		return http.StatusConflict, "insufficient_operators"
	case errors.Is(err, lineup.ErrUnknownSide),
		errors.Is(err, theme.ErrUnknownTheme),
		errors.Is(err, operator.ErrUnknownFilter),
		errors.Is(err, hub.ErrInvalidCode):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, profile.ErrUnknownOperator):
		return http.StatusNotFound, "unknown_operator"
	case errors.Is(err, hub.ErrUnavailable), errors.Is(err, profile.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
