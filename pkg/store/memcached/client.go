package memcached

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/nimburion/i18nloader/pkg/store"
)

const defaultTimeout = 500 * time.Millisecond

// client speaks the memcached text protocol, one short-lived connection per
// command. Keys are spread over the servers by FNV hash.
type client struct {
	addresses []string
	timeout   time.Duration
	dial      func(ctx context.Context, network, address string) (net.Conn, error)
}

func newClient(addresses []string, timeout time.Duration) (*client, error) {
	servers := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if addr = strings.TrimSpace(addr); addr != "" {
			servers = append(servers, addr)
		}
	}
	if len(servers) == 0 {
		return nil, errors.New("at least one memcached address is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &client{
		addresses: servers,
		timeout:   timeout,
		dial:      (&net.Dialer{Timeout: timeout}).DialContext,
	}, nil
}

// roundTrip sends request to the server owning key and hands the reply to read.
func (c *client) roundTrip(ctx context.Context, key string, request []byte, read func(*bufio.Reader) error) error {
	conn, err := c.dial(ctx, "tcp", c.server(key))
	if err != nil {
		return err
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write(request); err != nil {
		return err
	}
	return read(bufio.NewReader(conn))
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	return strings.TrimSpace(line), err
}

// get returns store.ErrNotFound for a missing key.
func (c *client) get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := c.roundTrip(ctx, key, []byte("get "+key+"\r\n"), func(r *bufio.Reader) error {
		header, err := readLine(r)
		if err != nil {
			return err
		}
		if header == "END" {
			return store.ErrNotFound
		}
		// VALUE <key> <flags> <bytes>
		fields := strings.Fields(header)
		if len(fields) != 4 || fields[0] != "VALUE" {
			return fmt.Errorf("unexpected memcached response: %s", header)
		}
		size, err := strconv.Atoi(fields[3])
		if err != nil {
			return fmt.Errorf("invalid memcached size: %w", err)
		}
		data := make([]byte, size+2)
		if _, err := io.ReadFull(r, data); err != nil {
			return err
		}
		if end, err := readLine(r); err != nil {
			return err
		} else if end != "END" {
			return fmt.Errorf("unexpected memcached terminator: %s", end)
		}
		value = data[:size]
		return nil
	})
	return value, err
}

// set stores value without expiry. Servers refusing the item for its size
// yield store.ErrQuotaExceeded.
func (c *client) set(ctx context.Context, key string, value []byte) error {
	var request bytes.Buffer
	fmt.Fprintf(&request, "set %s 0 0 %d\r\n", key, len(value))
	request.Write(value)
	request.WriteString("\r\n")

	return c.roundTrip(ctx, key, request.Bytes(), func(r *bufio.Reader) error {
		reply, err := readLine(r)
		if err != nil {
			return err
		}
		switch {
		case reply == "STORED":
			return nil
		case strings.Contains(reply, "too large"), strings.Contains(reply, "out of memory"):
			return fmt.Errorf("%w: %s", store.ErrQuotaExceeded, reply)
		default:
			return fmt.Errorf("memcached set failed: %s", reply)
		}
	})
}

// delete returns store.ErrNotFound for a missing key.
func (c *client) delete(ctx context.Context, key string) error {
	return c.roundTrip(ctx, key, []byte("delete "+key+"\r\n"), func(r *bufio.Reader) error {
		reply, err := readLine(r)
		if err != nil {
			return err
		}
		switch reply {
		case "DELETED":
			return nil
		case "NOT_FOUND":
			return store.ErrNotFound
		default:
			return fmt.Errorf("unexpected memcached delete response: %s", reply)
		}
	})
}

func (c *client) version(ctx context.Context) (string, error) {
	var version string
	err := c.roundTrip(ctx, "", []byte("version\r\n"), func(r *bufio.Reader) error {
		reply, err := readLine(r)
		if err != nil {
			return err
		}
		v, ok := strings.CutPrefix(reply, "VERSION ")
		if !ok {
			return fmt.Errorf("unexpected memcached version response: %s", reply)
		}
		version = v
		return nil
	})
	return version, err
}

func (c *client) server(key string) string {
	if len(c.addresses) == 1 {
		return c.addresses[0]
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return c.addresses[h.Sum32()%uint32(len(c.addresses))]
}
