package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/park285/cardchess/internal/board"
	"github.com/park285/cardchess/internal/clientsync"
	"github.com/park285/cardchess/internal/render"
	"github.com/park285/cardchess/pkg/protocol"
)

func main() {
	wsURL := os.Getenv("CARDCHESS_WS_URL")
	if wsURL == "" {
		wsURL = "ws://localhost:3000/ws"
	}
	pngPath := os.Getenv("PROBE_PNG")
	untilCard := os.Getenv("PROBE_PLAY_CARD") == "1"

	wait := 60 * time.Second
	if v := os.Getenv("PROBE_WAIT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("PROBE_WAIT: %v", err)
		}
		wait = d
	}

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	conn, err := clientsync.Dial(ctx, wsURL, clientsync.DialOptions{PingInterval: 15 * time.Second})
	if err != nil {
		log.Fatalf("connect error: %v", err)
	}
	defer conn.Close()

	env, err := conn.Expect(ctx, protocol.MsgConnected)
	if err != nil {
		log.Fatalf("waiting for connected: %v", err)
	}
	info, err := env.Connected()
	if err != nil {
		log.Fatalf("decode connected: %v", err)
	}
	color, _ := board.ParseColor(info.Color)
	log.Printf("connected room=%s color=%s; waiting for an opponent", info.RoomID, color)

	if _, err := conn.Expect(ctx, protocol.MsgGameStart); err != nil {
		log.Fatalf("waiting for gameStart: %v", err)
	}

	mirror := clientsync.NewMirror(color)
	if err := conn.Send(ctx, protocol.Resync()); err != nil {
		log.Fatalf("send resync: %v", err)
	}
	env, err = conn.Expect(ctx, protocol.MsgSyncResponse)
	if err != nil {
		log.Fatalf("waiting for syncResponse: %v", err)
	}
	st, err := env.State()
	if err != nil {
		log.Fatalf("decode syncResponse: %v", err)
	}
	if err := mirror.Sync(st); err != nil {
		log.Fatalf("sync: %v", err)
	}

	fmt.Printf("turn %d, %s to play, phase %s\n", st.TurnNumber, st.CurrentPlayer, st.CardPhase)
	fmt.Print(ascii(mirror.Board()))

	snapshot := mirror.Board()
	if untilCard {
		painted, err := playUntilCard(ctx, conn, mirror, st)
		if err != nil {
			log.Fatalf("play card: %v", err)
		}
		snapshot = painted
		st = mirror.State()
		fmt.Printf("after card: turn %d, %s to play\n", st.TurnNumber, st.CurrentPlayer)
		fmt.Print(ascii(mirror.Board()))
	}

	if pngPath != "" {
		png, err := render.RenderPNG(ctx, snapshot, render.Options{
			Title: fmt.Sprintf("room %s | turn %d", info.RoomID, st.TurnNumber),
			Flip:  color == board.Black,
		})
		if err != nil {
			log.Fatalf("render: %v", err)
		}
		if err := os.WriteFile(pngPath, png, 0o644); err != nil {
			log.Fatalf("write %s: %v", pngPath, err)
		}
		log.Printf("board written to %s", pngPath)
	}
}

// ascii prints row 0 first. Black pieces are lowercase; reversed pawns show as v/V.
func ascii(b *board.Board) string {
	const letters = ".PRNBQKJO"
	var sb strings.Builder
	for y := 0; y < board.Size; y++ {
		fmt.Fprintf(&sb, "%d ", board.Size-y)
		for x := 0; x < board.Size; x++ {
			ch := "."
			if p := b.TileAt(x, y).Piece(); p != nil {
				ch = string(letters[p.Kind])
				if p.Kind == board.Pawn && p.Reversed {
					ch = "V"
				}
				if p.Color == board.Black {
					ch = strings.ToLower(ch)
				}
			}
			sb.WriteString(ch)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  abcdefgh\n")
	return sb.String()
}
