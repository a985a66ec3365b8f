// internal/websocket/handler/view.go
package handler

import (
	"context"
	"errors"
	"fmt"

	"retention-service/internal/domain/agency"
	"retention-service/internal/domain/view"
	wstypes "retention-service/internal/domain/websocket"
	xerrors "retention-service/internal/pkg/errors"
	ws "retention-service/internal/websocket"

	"go.uber.org/zap"
)

// ViewCommander is the part of the view service the socket drives.
type ViewCommander interface {
	Get(ctx context.Context, id string) (*view.ViewPage, error)
	Apply(ctx context.Context, id string, cmd *view.Command) (*view.ViewPage, error)
	SwitchAgency(ctx context.Context, id, agency string) (*view.ViewPage, error)
}

// Publisher fans a page out to every connection of a view.
type Publisher interface {
	BroadcastPage(viewID string, page any)
}

// ViewHandler applies dashboard commands sent over the socket. Search
// input is debounced per connection; any other command first flushes a
// pending search so commands apply in the order they were sent.
type ViewHandler struct {
	views     ViewCommander
	publisher Publisher
	logger    *zap.Logger
}

func NewViewHandler(views ViewCommander, publisher Publisher, logger *zap.Logger) *ViewHandler {
	return &ViewHandler{
		views:     views,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *ViewHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{
		wstypes.EventTypeViewCommand,
		wstypes.EventTypeViewRefresh,
		wstypes.EventTypeViewAgency,
	}
}

func (h *ViewHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	switch msg.Type {
	case wstypes.EventTypeViewCommand:
		var cmd view.Command
		if err := msg.Decode(&cmd); err != nil {
			return fmt.Errorf("invalid command: %w", err)
		}
		if cmd.Op == "" {
			return xerrors.Invalid("command has no op")
		}
		if cmd.Op == view.OpSearch {
			client.Debounce(func() { h.apply(client.Context(), client, &cmd) })
			return nil
		}
		client.Flush()
		h.apply(ctx, client, &cmd)
		return nil

	case wstypes.EventTypeViewAgency:
		var req wstypes.AgencyData
		if err := msg.Decode(&req); err != nil || req.Agency == "" {
			return xerrors.Invalid("agency is required")
		}
		client.Flush()
		page, err := h.views.SwitchAgency(ctx, client.ViewID(), req.Agency)
		if err != nil {
			h.fail(client, err)
			return nil
		}
		h.publisher.BroadcastPage(client.ViewID(), page)
		return nil

	case wstypes.EventTypeViewRefresh:
		client.Flush()
		page, err := h.views.Get(ctx, client.ViewID())
		if err != nil {
			h.fail(client, err)
			return nil
		}
		client.SendMessage(wstypes.NewMessage(wstypes.EventTypeViewPage, page))
		return nil
	}
	return nil
}

func (h *ViewHandler) apply(ctx context.Context, client *ws.Client, cmd *view.Command) {
	page, err := h.views.Apply(ctx, client.ViewID(), cmd)
	if err != nil {
		h.fail(client, err)
		return
	}
	h.publisher.BroadcastPage(client.ViewID(), page)
}

func (h *ViewHandler) fail(client *ws.Client, err error) {
	code := "command_failed"
	switch {
	case errors.Is(err, view.ErrViewNotFound):
		code = "view_not_found"
	case errors.Is(err, agency.ErrUnknownAgency):
		code = "unknown_agency"
	case errors.Is(err, xerrors.ErrInvalidInput), errors.Is(err, view.ErrUnknownCommand):
		code = "invalid_command"
	case errors.Is(err, context.Canceled):
		return
	}
	h.logger.Debug("view command failed",
		zap.String("view_id", client.ViewID()),
		zap.Error(err),
	)
	client.SendError(code, "Failed to apply command", err.Error())
}
