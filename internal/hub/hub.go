package hub

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/DoyleJ11/siege-picker/internal/profile"
	"go.uber.org/zap"
)

var ErrInvalidCode = errors.New("invalid profile code")
var ErrUnavailable = errors.New("profile unavailable")

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// NormalizeCode upper-cases code and checks it is six letters or digits.
func NormalizeCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if !codePattern.MatchString(c) {
		return "", ErrInvalidCode
	}
	return c, nil
}

type HubMsg interface{ isHubMsg() }

type GetProfile struct {
	Code  string
	Reply chan *profile.Profile
}

// EnsureProfile opens the profile on first use. Reply gets nil if the
// profile's stored state could not be loaded.
type EnsureProfile struct {
	Code  string
	Reply chan *profile.Profile
}

type RemoveProfile struct {
	Code string
}

type ShutdownHub struct{}

func (GetProfile) isHubMsg()    {}
func (EnsureProfile) isHubMsg() {}
func (RemoveProfile) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

type Hub struct {
	inbox    chan HubMsg
	profiles map[string]*profile.Profile
	deps     profile.Deps
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, deps profile.Deps) *Hub {
	ctx, cancel := context.WithCancel(parent)
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		profiles: make(map[string]*profile.Profile),
		deps:     deps,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case GetProfile:
				msg.Reply <- h.profiles[msg.Code] // May be nil

			case EnsureProfile:
				if p := h.profiles[msg.Code]; p != nil {
					msg.Reply <- p
					break
				}

				p, err := profile.Open(h.ctx, msg.Code, h.deps)
				if err != nil {
					h.log.Error("unable to open profile", zap.String("profile", msg.Code), zap.Error(err))
					msg.Reply <- nil
					break
				}
				h.profiles[msg.Code] = p
				msg.Reply <- p

			case RemoveProfile:
				if p := h.profiles[msg.Code]; p != nil {
					select {
					case p.Inbox() <- profile.Shutdown{}:
					case <-p.Done():
					}
					delete(h.profiles, msg.Code)
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for _, p := range h.profiles {
		select {
		case p.Inbox() <- profile.Shutdown{}:
		case <-p.Done():
		}
	}
	clear(h.profiles)
	h.cancel()
}

// Ensure returns the open profile for code, opening it if needed.
func (h *Hub) Ensure(ctx context.Context, code string) (*profile.Profile, error) {
	return h.request(ctx, code, func(reply chan *profile.Profile) HubMsg {
		return EnsureProfile{Code: code, Reply: reply}
	})
}

// Get returns the profile only if it is already open.
func (h *Hub) Get(ctx context.Context, code string) (*profile.Profile, error) {
	return h.request(ctx, code, func(reply chan *profile.Profile) HubMsg {
		return GetProfile{Code: code, Reply: reply}
	})
}

func (h *Hub) request(ctx context.Context, code string, build func(chan *profile.Profile) HubMsg) (*profile.Profile, error) {
	reply := make(chan *profile.Profile, 1)
	select {
	case h.inbox <- build(reply):
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.ctx.Done():
		return nil, ErrUnavailable
	}

	select {
	case p := <-reply:
		if p == nil {
			return nil, ErrUnavailable
		}
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.ctx.Done():
		return nil, ErrUnavailable
	}
}
