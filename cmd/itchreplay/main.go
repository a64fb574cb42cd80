package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"itchfeed/internal/book"
	"itchfeed/internal/itch"
)

func main() {
	mode := flag.String("mode", "parser+book", "replay mode: 'parser' (decode only) or 'parser+book' (decode and apply to the order-book manager)")
	feedFlag := flag.String("feed", "", "path to an ITCH 5.0 feed file (defaults to $ITCH_FEED_FILE)")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	feedPath := *feedFlag
	if feedPath == "" {
		feedPath = os.Getenv("ITCH_FEED_FILE")
	}
	if feedPath == "" {
		log.Fatal().Msg("no feed file: pass -feed or set ITCH_FEED_FILE")
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	var t tomb.Tomb
	t.Go(func() error {
		return replay(ctx, feedPath, *mode == "parser+book")
	})

	<-t.Dead()
	if err := t.Err(); err != nil && err != tomb.ErrStillAlive {
		log.Fatal().Err(err).Msg("replay failed")
	}
}

// replay drives the decode/apply loop described for the feed's consumer
// (§5): single-threaded, no operation suspends on I/O except the stream's
// own refill.
func replay(ctx context.Context, feedPath string, applyToBook bool) error {
	f, err := os.Open(feedPath)
	if err != nil {
		return err
	}
	defer f.Close()

	stream := itch.NewMessageStream(f)
	manager := book.NewManager()

	logger := log.With().Str("stream_id", stream.StreamID.String()).Str("feed", feedPath).Logger()
	logger.Info().Bool("apply_to_book", applyToBook).Msg("replay starting")

	start := time.Now()
	var decoded int

	for {
		select {
		case <-ctx.Done():
			logger.Warn().Msg("replay interrupted")
			return ctx.Err()
		default:
		}

		msg, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var decodeErr *itch.DecodeError
			if errors.As(err, &decodeErr) {
				logger.Error().Err(decodeErr).Msg("decode diagnostic")
				continue
			}
			return err
		}

		decoded++
		if applyToBook {
			if err := applyMessage(manager, msg); err != nil {
				logger.Error().Err(err).Msg("order id overflow: halting replay")
				break
			}
		}
	}

	elapsed := time.Since(start)
	logger.Info().
		Int("messages_decoded", decoded).
		Int("read_calls", stream.ReadCalls).
		Int("bytes_read", stream.BytesRead).
		Dur("elapsed", elapsed).
		Msg("replay finished")

	if applyToBook {
		for _, id := range manager.ActiveBooks() {
			b := manager.Book(id)
			logger.Info().
				Uint16("book_id", uint16(id)).
				Int("bid_levels", b.Bids.Len()).
				Int("ask_levels", b.Asks.Len()).
				Msg("book summary")
		}
	}
	return nil
}

// applyMessage maps a decoded event onto the manager's five mutators
// (§4.6). Tags whose bodies are advance-only (Pass) or whose semantics are
// informational only (tag C's execution price) are ignored here: the
// manager's own ExecuteOrder never takes a price parameter (§4.6). Returns
// itch.ErrOrderIdOverflow if a reference on the message doesn't fit in
// OrderId's 32 bits (§3/§7): the caller halts replay rather than guess.
func applyMessage(m *book.OrderBookManager, msg *itch.Message) error {
	switch b := msg.Body.(type) {
	case itch.AddOrder:
		ref, ok := truncateRef(b.Reference)
		if !ok {
			return itch.ErrOrderIdOverflow
		}
		m.AddOrder(book.OrderId(ref), book.BookId(msg.StockLocate), book.Quantity(b.Shares), b.Price, b.Side == itch.Buy)
	case itch.AddOrderMPID:
		ref, ok := truncateRef(b.Reference)
		if !ok {
			return itch.ErrOrderIdOverflow
		}
		m.AddOrder(book.OrderId(ref), book.BookId(msg.StockLocate), book.Quantity(b.Shares), b.Price, b.Side == itch.Buy)
	case itch.OrderExecuted:
		ref, ok := truncateRef(b.Reference)
		if !ok {
			return itch.ErrOrderIdOverflow
		}
		m.ExecuteOrder(book.OrderId(ref), book.Quantity(b.ExecutedShares))
	case itch.OrderExecutedWithPrice:
		ref, ok := truncateRef(b.Reference)
		if !ok {
			return itch.ErrOrderIdOverflow
		}
		m.ExecuteOrder(book.OrderId(ref), book.Quantity(b.ExecutedShares))
	case itch.OrderCancelled:
		ref, ok := truncateRef(b.Reference)
		if !ok {
			return itch.ErrOrderIdOverflow
		}
		m.CancelOrder(book.OrderId(ref), book.Quantity(b.CancelledShares))
	case itch.OrderDelete:
		ref, ok := truncateRef(b.Reference)
		if !ok {
			return itch.ErrOrderIdOverflow
		}
		m.RemoveOrder(book.OrderId(ref))
	case itch.OrderReplace:
		oldRef, ok := truncateRef(b.OldReference)
		if !ok {
			return itch.ErrOrderIdOverflow
		}
		newRef, ok := truncateRef(b.NewReference)
		if !ok {
			return itch.ErrOrderIdOverflow
		}
		m.ReplaceOrder(book.OrderId(oldRef), book.OrderId(newRef), book.Quantity(b.Shares), b.Price)
	case itch.SystemEvent, itch.Pass:
		// session markers and out-of-scope fixed-width tags carry no book
		// mutation (§1's explicit Non-goal list).
	}
	return nil
}

// truncateRef narrows the feed's 64-bit order reference to OrderId's
// 32-bit width, reporting false rather than truncating silently when the
// high 32 bits are non-zero (§3/§7's documented limitation: a caller must
// detect the overflow, not swallow it — mirrors the original's
// `reference.try_into(): Option<u32>`).
func truncateRef(ref uint64) (uint32, bool) {
	if ref > uint64(^uint32(0)) {
		return 0, false
	}
	return uint32(ref), true
}
