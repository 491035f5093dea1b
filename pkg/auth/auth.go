package auth

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	badge "github.com/samsamfire/gobadge"
	"github.com/samsamfire/gobadge/pkg/dispatch"
	"github.com/samsamfire/gobadge/pkg/gatt"
	"github.com/samsamfire/gobadge/pkg/jieli"
	log "github.com/sirupsen/logrus"
)

// StepTimeout bounds each of the six handshake messages.
const StepTimeout = 5 * time.Second

// Engine drives the mutual authentication handshake. Executed once per
// connection; every call after a success short-circuits.
type Engine struct {
	mu            sync.Mutex
	tr            *gatt.Transport
	bus           *dispatch.Bus
	stepTimeout   time.Duration
	authenticated bool
}

func NewEngine(tr *gatt.Transport, bus *dispatch.Bus) *Engine {
	return &Engine{tr: tr, bus: bus, stepTimeout: StepTimeout}
}

// Authenticated reports whether the handshake has completed.
func (e *Engine) Authenticated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.authenticated
}

// rawAuth matches handshake payloads: everything on the data channel
// that is not FE framed.
func rawAuth(prefix byte, size int) func([]byte) bool {
	return func(p []byte) bool {
		return !badge.IsFrame(p) && len(p) == size && p[0] == prefix
	}
}

// Authenticate runs the six-message exchange:
//
//	host   -> [0x00, rand16]
//	device -> [0x01, enc16]           (not verified host side)
//	host   -> [0x02, 'pass']
//	device -> [0x00, challenge16]
//	host   -> [0x01, E1(challenge)]
//	device -> [0x02, 'pass']          anything else is fatal
func (e *Engine) Authenticate() error {
	e.mu.Lock()
	if e.authenticated {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	random, err := jieli.RandomAuthMessage()
	if err != nil {
		return err
	}
	if err := e.tr.DataWrite(random[:]); err != nil {
		return fmt.Errorf("sending auth random: %w", err)
	}
	if _, err := e.bus.WaitRaw(gatt.SourceData, rawAuth(jieli.AuthTypeEncrypted, 17), e.stepTimeout); err != nil {
		return fmt.Errorf("waiting for device encryption: %w", err)
	}

	if err := e.tr.DataWrite(jieli.PassToken); err != nil {
		return fmt.Errorf("sending pass token: %w", err)
	}
	payload, err := e.bus.WaitRaw(gatt.SourceData, rawAuth(jieli.AuthTypeRandom, 17), e.stepTimeout)
	if err != nil {
		return fmt.Errorf("waiting for device challenge: %w", err)
	}

	var challenge [16]byte
	copy(challenge[:], payload[1:])
	response := jieli.ChallengeResponse(challenge)
	if err := e.tr.DataWrite(response[:]); err != nil {
		return fmt.Errorf("sending challenge response: %w", err)
	}

	token, err := e.bus.WaitRaw(gatt.SourceData, func(p []byte) bool {
		return !badge.IsFrame(p)
	}, e.stepTimeout)
	if err != nil {
		return fmt.Errorf("waiting for auth result: %w", err)
	}
	if !bytes.Equal(token, jieli.PassToken) {
		log.Errorf("[AUTH] device rejected handshake, reply % x", token)
		return badge.ErrAuthFailed
	}

	e.mu.Lock()
	e.authenticated = true
	e.mu.Unlock()
	log.Debug("[AUTH] mutual authentication complete")
	return nil
}
