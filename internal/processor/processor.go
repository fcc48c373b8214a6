// Package processor drives the single-pass, line-by-line rewrite
// described in spec §4.3/§5: read a text stream, anonymize every IP and
// MAC literal found on each line, and write the rewritten stream out in
// original line order.
package processor

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/heistp/ipanon/internal/cryptopan"
	"github.com/heistp/ipanon/internal/policy"
	"github.com/heistp/ipanon/internal/scan"
)

// Anonymizer is the subset of *policy.Policy that Run depends on. Accepting
// the interface rather than the concrete type keeps the processor testable
// without a real key or CIDR list.
type Anonymizer interface {
	Anonymize(s string) (string, error)
}

// Summary totals the tokens rewritten across an entire run, reported on
// stderr at exit in the spirit of the teacher's
// "processed %d packets" summary line.
type Summary struct {
	Lines int
	Stats scan.Stats
}

// CollisionHandler is invoked whenever the policy reports a
// policy.CollisionError for a token. Returning a non-nil error aborts the
// run; returning nil lets the run continue with the anonymized value the
// policy already computed. The CLI layer wires this to "log and exit 1"
// per spec §7.
type CollisionHandler func(err *policy.CollisionError) error

// Run processes r line by line, writing the anonymized stream to w. It
// returns once r is exhausted (io.EOF is not an error) or on the first
// unrecoverable error: a malformed address literal, an I/O failure, or a
// collision that onCollision declined to continue past.
func Run(r io.Reader, w io.Writer, p Anonymizer, onCollision CollisionHandler) (Summary, error) {
	var sum Summary

	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	for {
		line, readErr := br.ReadString('\n')
		if len(line) > 0 {
			rewritten, stats, err := scan.Line(line, func(addr string) (string, error) {
				return anonymizeToken(p, addr, onCollision)
			})
			if err != nil {
				return sum, err
			}
			sum.Lines++
			sum.Stats.IPv6 += stats.IPv6
			sum.Stats.IPv4 += stats.IPv4
			sum.Stats.MAC += stats.MAC

			if _, err := bw.WriteString(rewritten); err != nil {
				return sum, fmt.Errorf("processor: writing output: %w", err)
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return sum, nil
			}
			return sum, fmt.Errorf("processor: reading input: %w", readErr)
		}
	}
}

// anonymizeToken applies the policy to a single token, routing a
// collision through onCollision while still returning the policy's
// computed value so the caller can decide whether to keep rewriting.
func anonymizeToken(p Anonymizer, addr string, onCollision CollisionHandler) (string, error) {
	result, err := p.Anonymize(addr)
	if err == nil {
		return result, nil
	}

	var collision *policy.CollisionError
	if errors.As(err, &collision) {
		if onCollision != nil {
			if hErr := onCollision(collision); hErr != nil {
				return result, hErr
			}
		}
		return result, nil
	}

	var addrErr *cryptopan.AddressValueError
	if errors.As(err, &addrErr) {
		return "", err
	}

	return "", err
}
