package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/DoyleJ11/siege-picker/internal/kv"
	"github.com/DoyleJ11/siege-picker/internal/lineup"
	"github.com/DoyleJ11/siege-picker/internal/operator"
	"github.com/DoyleJ11/siege-picker/internal/ownership"
	"github.com/DoyleJ11/siege-picker/internal/theme"
	"go.uber.org/zap"
)

var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrUnknownOperator = errors.New("unknown operator")
var ErrClosed = errors.New("profile closed")

type CommandType string

const (
	CmdToggle      CommandType = "Toggle"
	CmdAdd         CommandType = "Add"
	CmdRemove      CommandType = "Remove"
	CmdSelectAll   CommandType = "SelectAll"
	CmdDeselectAll CommandType = "DeselectAll"
	CmdImport      CommandType = "Import"
	CmdSetTheme    CommandType = "SetTheme"
)

type Command struct {
	Type       CommandType
	OperatorID string
	Payload    []byte // Import: JSON array of ids
	Theme      theme.Theme
}

type Msg interface{ isProfileMsg() }

// FromClient applies Cmd. Reply, if set, must be buffered.
type FromClient struct {
	Cmd   Command
	Reply chan error
}

func (FromClient) isProfileMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isProfileMsg() {}

type Leave struct{ ClientID string }

func (Leave) isProfileMsg() {}

type Shutdown struct{}

func (Shutdown) isProfileMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isProfileMsg() {}

// Roll draws a random lineup from the currently owned operators.
type Roll struct {
	Start lineup.Side
	Reply chan RollResult
}

func (Roll) isProfileMsg() {}

type RollResult struct {
	Slots []lineup.Slot
	Err   error
}

type Snapshot struct {
	Version int
	Owned   []string
	Theme   theme.Theme
}

type View struct {
	Version    int
	NumClients int
	Owned      []string
	Theme      theme.Theme
}

type Deps struct {
	Store    kv.Store
	Catalog  *operator.Catalog
	Selector *lineup.Selector
	Logger   *zap.Logger
}

type Profile struct {
	code     string
	inbox    chan Msg
	owned    *ownership.Store
	themes   *theme.Store
	theme    theme.Theme
	catalog  *operator.Catalog
	selector *lineup.Selector
	version  int
	clients  map[string]chan Snapshot
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// Open loads the profile's persisted state and starts its loop.
func Open(parent context.Context, code string, deps Deps) (*Profile, error) {
	owned, err := ownership.Open(parent, deps.Store, code)
	if err != nil {
		return nil, err
	}
	themes := theme.NewStore(deps.Store, code)
	current, err := themes.Get(parent)
	if err != nil {
		return nil, fmt.Errorf("load theme: %w", err)
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	catalog := deps.Catalog
	if catalog == nil {
		catalog = operator.NewCatalog(nil)
	}
	selector := deps.Selector
	if selector == nil {
		selector = lineup.NewSelector(catalog)
	}

	ctx, cancel := context.WithCancel(parent)
	p := &Profile{
		code:     code,
		inbox:    make(chan Msg, 64), // Small buffer
		owned:    owned,
		themes:   themes,
		theme:    current,
		catalog:  catalog,
		selector: selector,
		clients:  make(map[string]chan Snapshot),
		log:      log.With(zap.String("profile", code)),
		ctx:      ctx,
		cancel:   cancel,
	}

	go p.loop()
	return p, nil
}

func (p *Profile) loop() {
	for {
		select {
		case <-p.ctx.Done():
			p.shutdown()
			return

		case m := <-p.inbox:
			switch msg := m.(type) {
			case Join:
				// Register client + send current snapshot immediately
				p.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- p.snapshot()

			case Leave:
				delete(p.clients, msg.ClientID)

			case FromClient:
				err := p.apply(msg.Cmd)
				if msg.Reply != nil {
					msg.Reply <- err
				}
				if err != nil {
					p.log.Debug("command rejected", zap.String("cmd", string(msg.Cmd.Type)), zap.Error(err))
					break
				}
				p.version++
				p.broadcast(p.snapshot())

			case Roll:
				slots, err := p.selector.Select(p.owned, msg.Start)
				msg.Reply <- RollResult{Slots: slots, Err: err}

			case GetState:
				msg.Reply <- View{
					Version:    p.version,
					NumClients: len(p.clients),
					Owned:      p.owned.Export(),
					Theme:      p.theme,
				}

			case Shutdown:
				p.shutdown()
				return
			}
		}
	}
}

func (p *Profile) apply(cmd Command) error {
	switch cmd.Type {
	case CmdToggle:
		// Owned ids always toggle off, even ones the catalog no longer has.
		if !p.owned.IsOwned(cmd.OperatorID) && !p.catalog.Has(cmd.OperatorID) {
			return fmt.Errorf("%w: %q", ErrUnknownOperator, cmd.OperatorID)
		}
		_, err := p.owned.Toggle(p.ctx, cmd.OperatorID)
		return err

	case CmdAdd:
		if !p.catalog.Has(cmd.OperatorID) {
			return fmt.Errorf("%w: %q", ErrUnknownOperator, cmd.OperatorID)
		}
		return p.owned.Add(p.ctx, cmd.OperatorID)

	case CmdRemove:
		return p.owned.Remove(p.ctx, cmd.OperatorID)

	case CmdSelectAll:
		return p.owned.SetAll(p.ctx, p.catalog.IDs())

	case CmdDeselectAll:
		return p.owned.Clear(p.ctx)

	case CmdImport:
		return p.owned.Import(p.ctx, cmd.Payload)

	case CmdSetTheme:
		t, err := theme.Parse(string(cmd.Theme))
		if err != nil {
			return err
		}
		if err := p.themes.Set(p.ctx, t); err != nil {
			return err
		}
		p.theme = t
		return nil

	default:
		return ErrUnsupportedCommand
	}
}

func (p *Profile) snapshot() Snapshot {
	return Snapshot{Version: p.version, Owned: p.owned.Export(), Theme: p.theme}
}

func (p *Profile) shutdown() {
	for id, ch := range p.clients {
		close(ch) // Tell client no more snapshots
		delete(p.clients, id)
	}
	p.cancel()
}

func (p *Profile) broadcast(snap Snapshot) {
	for id, ch := range p.clients {
		select {
		case ch <- snap:
			//ok
		default:
			// Client is slow/full - drop them.
			p.log.Info("dropping slow client", zap.String("client", id))
			close(ch)
			delete(p.clients, id)
		}
	}
}

// Expose the inbox so tests or WS layer can send messages.
func (p *Profile) Inbox() chan<- Msg { return p.inbox }

func (p *Profile) Code() string { return p.code }

// Done is closed once the loop has been told to stop.
func (p *Profile) Done() <-chan struct{} { return p.ctx.Done() }

// Do applies cmd and waits for the outcome.
func (p *Profile) Do(ctx context.Context, cmd Command) error {
	reply := make(chan error, 1)
	if err := p.send(ctx, FromClient{Cmd: cmd, Reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrClosed
	}
}

func (p *Profile) State(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := p.send(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return View{}, ctx.Err()
	case <-p.ctx.Done():
		return View{}, ErrClosed
	}
}

func (p *Profile) RollLineup(ctx context.Context, start lineup.Side) ([]lineup.Slot, error) {
	reply := make(chan RollResult, 1)
	if err := p.send(ctx, Roll{Start: start, Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case res := <-reply:
		return res.Slots, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.ctx.Done():
		return nil, ErrClosed
	}
}

func (p *Profile) send(ctx context.Context, m Msg) error {
	select {
	case p.inbox <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrClosed
	}
}
