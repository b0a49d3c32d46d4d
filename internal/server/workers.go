package server

import (
	"context"
	"log"
	"time"

	"github.com/agent-pulse/pulsed/internal/events"
	"github.com/agent-pulse/pulsed/internal/storage"
)

// StartWorkers launches the node's background loops. They run until ctx is
// cancelled.
func (s *Server) StartWorkers(ctx context.Context) {
	go s.runEventLog(ctx)
	go s.runStatsLog(ctx)
}

// runEventLog drains the event bus into the durable event log. Parameter
// changes also snapshot the current params row so a restart comes back with
// the same configuration.
func (s *Server) runEventLog(ctx context.Context) {
	id, ch := s.bus.Subscribe(256)
	defer s.bus.Unsubscribe(id)

	log.Printf("[eventlog] worker started")
	for {
		select {
		case <-ctx.Done():
			log.Printf("[eventlog] worker stopped")
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := s.db.AppendEvent(e); err != nil {
				log.Printf("[eventlog] append %s: %v", e.Type, err)
			}
			switch e.Type {
			case events.TypeTTLChanged, events.TypeMinAmountChanged, events.TypePaused, events.TypeUnpaused:
				row := &storage.ParamsRow{
					TTLSeconds:      s.reg.TTLSeconds(),
					MinSignalAmount: s.reg.MinSignalAmount(),
					Paused:          s.reg.Paused(),
					Administrator:   s.admin,
				}
				if err := s.db.SaveParams(row); err != nil {
					log.Printf("[eventlog] save params: %v", err)
				}
			}
		}
	}
}

// runStatsLog periodically logs a one-line summary of registry activity.
func (s *Server) runStatsLog(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	log.Printf("[stats] worker started")
	for {
		select {
		case <-ctx.Done():
			log.Printf("[stats] worker stopped")
			return
		case <-ticker.C:
			st, err := s.reg.CollectStats()
			if err != nil {
				log.Printf("[stats] collect: %v", err)
				continue
			}
			log.Printf("[stats] agents=%d alive=%d staked=%d subscribers=%d",
				st.Agents, st.Alive, st.TotalStaked, s.bus.SubscriberCount())
		}
	}
}
