package client

import (
	"github.com/samsamfire/gobadge/pkg/auth"
	"github.com/samsamfire/gobadge/pkg/dispatch"
	"github.com/samsamfire/gobadge/pkg/gatt"
	"github.com/samsamfire/gobadge/pkg/rcsp"
	"github.com/samsamfire/gobadge/pkg/session"
)

// Client assembles the full stack over one logical connection: the
// dispatcher subscribed to the transport, the auth engine, the upload
// session and the auxiliary operations.
type Client struct {
	Transport *gatt.Transport
	Bus       *dispatch.Bus
	Auth      *auth.Engine
	Session   *session.Session
	Rcsp      *rcsp.Client
}

// New wires a client onto a connected transport.
func New(tr *gatt.Transport) *Client {
	bus := dispatch.New(tr.DataWrite)
	tr.Subscribe(bus)
	engine := auth.NewEngine(tr, bus)
	return &Client{
		Transport: tr,
		Bus:       bus,
		Auth:      engine,
		Session:   session.NewSession(tr, bus, engine),
		Rcsp:      rcsp.NewClient(tr, bus),
	}
}

// Upload transfers one artifact to the badge.
func (c *Client) Upload(payload []byte, kind session.Kind, opts *session.Options) error {
	return c.Session.Upload(payload, kind, opts)
}

// Cancel aborts an in-flight upload.
func (c *Client) Cancel() {
	c.Session.Cancel()
}

// Disconnect tears down all transport registrations.
func (c *Client) Disconnect() {
	c.Transport.Unsubscribe(c.Bus)
	c.Transport.Disconnect()
}
