package server

import (
	"context"

	"github.com/park285/cardchess/internal/match"
	"github.com/park285/cardchess/internal/notify"
	"github.com/park285/cardchess/internal/obslog"
	"go.uber.org/zap"
)

// report runs once per finished match: the room is discarded, the lobby
// forgets it, the result is stored and posted.
func (s *Server) report(rec match.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ReportTimeout)
	defer cancel()
	log := obslog.Room(rec.RoomID)

	s.rooms.Remove(rec.RoomID)
	if err := s.pairer.Finish(ctx, rec.RoomID); err != nil {
		log.Warn("lobby_finish_failed", zap.Error(err))
	}

	if s.store != nil {
		if err := s.store.SaveResult(ctx, rec); err != nil {
			log.Error("result_save_failed", zap.Error(err))
		}
	}

	if s.notifier != nil {
		summary, err := s.catalog.Summary(rec)
		if err != nil {
			log.Warn("result_summary_failed", zap.Error(err))
		}
		if err := s.notifier.PostResult(ctx, notify.NewResult(rec, summary)); err != nil {
			log.Error("result_notify_failed", zap.Error(err))
		}
	}
}
