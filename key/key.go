// Package key builds hashable, equality-comparable cache keys from
// heterogeneous call arguments. It is the seam between a memoized
// function's signature and the opaque keys the arc store works with.
package key

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrUnsupportedArg is returned when an argument's type has no canonical
// encoding. Failing loudly beats silently producing colliding keys;
// callers can pre-convert exotic arguments to a string or implement
// fmt.Stringer.
var ErrUnsupportedArg = errors.New("key: unsupported argument type")

// Key identifies one memoized call. It is comparable (usable as a map
// key) and carries an xxhash digest of its canonical encoding, computed
// exactly once at build time. Equality always compares the full encoding;
// the digest only accelerates sharding and fingerprinting.
type Key struct {
	canon string
	sum   uint64
}

// Sum64 returns the precomputed digest of the canonical encoding.
func (k Key) Sum64() uint64 { return k.sum }

// String returns the canonical encoding in quoted form (the raw encoding
// contains separator control bytes).
func (k Key) String() string { return strconv.Quote(k.canon) }

// Encoding separators: one byte between encoded arguments, another
// between the positional and named sections. Variable-length payloads are
// length-prefixed, so these bytes occurring inside argument values cannot
// create ambiguity.
const (
	sepRecord  = 0x1f
	sepSection = 0x1d
)

// Build produces the key for a call with the given positional and named
// arguments. Named arguments are encoded in sorted name order, so two
// maps with equal contents build equal keys.
//
// When typed is false, numerically equal arguments of different widths
// collapse to the same key (int32(3), int64(3) and float64(3) are one
// identity, as are a string and the equal []byte). The int/float collapse
// covers every integral float in the int64 range; unsigned values above
// math.MaxInt64 have no float counterpart. When typed is true the
// concrete type participates in identity.
func Build(args []any, named map[string]any, typed bool) (Key, error) {
	var b strings.Builder
	for _, a := range args {
		if err := appendArg(&b, a, typed); err != nil {
			return Key{}, err
		}
	}
	if len(named) > 0 {
		names := make([]string, 0, len(named))
		for n := range named {
			names = append(names, n)
		}
		sort.Strings(names)

		b.WriteByte(sepSection)
		for _, n := range names {
			writePayload(&b, 'k', n)
			if err := appendArg(&b, named[n], typed); err != nil {
				return Key{}, err
			}
		}
	}
	canon := b.String()
	return Key{canon: canon, sum: xxhash.Sum64String(canon)}, nil
}

// Of builds a key from positional arguments only, untyped.
func Of(args ...any) (Key, error) { return Build(args, nil, false) }

// appendArg encodes one argument value. Numeric kinds share the 'n' tag
// so that equal values compare equal in untyped mode; integral floats
// reuse the integer encoding.
func appendArg(b *strings.Builder, v any, typed bool) error {
	switch x := v.(type) {
	case nil:
		b.WriteByte('z')
	case bool:
		if x {
			b.WriteByte('t')
		} else {
			b.WriteByte('f')
		}
	case string:
		writePayload(b, 's', x)
	case []byte:
		writePayload(b, 's', string(x))
	case int:
		writeInt(b, int64(x))
	case int8:
		writeInt(b, int64(x))
	case int16:
		writeInt(b, int64(x))
	case int32:
		writeInt(b, int64(x))
	case int64:
		writeInt(b, x)
	case uint:
		writeUint(b, uint64(x))
	case uint8:
		writeUint(b, uint64(x))
	case uint16:
		writeUint(b, uint64(x))
	case uint32:
		writeUint(b, uint64(x))
	case uint64:
		writeUint(b, x)
	case uintptr:
		writeUint(b, uint64(x))
	case float32:
		writeFloat(b, float64(x), 32)
	case float64:
		writeFloat(b, x, 64)
	case fmt.Stringer:
		writePayload(b, 'r', x.String())
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedArg, v)
	}
	if typed {
		b.WriteByte('(')
		fmt.Fprintf(b, "%T", v)
		b.WriteByte(')')
	}
	b.WriteByte(sepRecord)
	return nil
}

func writeInt(b *strings.Builder, i int64) {
	b.WriteByte('n')
	b.WriteString(strconv.FormatInt(i, 10))
}

func writeUint(b *strings.Builder, u uint64) {
	b.WriteByte('n')
	b.WriteString(strconv.FormatUint(u, 10))
}

func writeFloat(b *strings.Builder, f float64, bits int) {
	// Integral floats take the integer encoding; FormatFloat switches to
	// exponent notation around 1e15, which would split float64(1e15) and
	// int64(1e15) into two identities. NaN and the infinities fail the
	// self-equality or range checks and keep the float formatting.
	if f == math.Trunc(f) && f >= -(1<<63) && f < 1<<63 {
		writeInt(b, int64(f))
		return
	}
	b.WriteByte('n')
	b.WriteString(strconv.FormatFloat(f, 'g', -1, bits))
}

// writePayload writes a length-prefixed payload: tag, decimal length, a
// colon, then the raw bytes (netstring style).
func writePayload(b *strings.Builder, tag byte, s string) {
	b.WriteByte(tag)
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
}
