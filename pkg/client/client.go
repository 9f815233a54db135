package client

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cuemby/coldb/pkg/types"
)

// Client is a single connection to a coldb server's Unix-domain DSL
// socket. The protocol is strictly request/reply (spec.md §6.1, §7): one
// statement in flight at a time, so Exec serializes callers with a mutex
// rather than offering a connection pool.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Scanner
	writer *bufio.Writer
}

// Dial opens a connection to a coldb server listening on socketPath.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", socketPath, err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 8<<20)
	return &Client{
		conn:   conn,
		reader: scanner,
		writer: bufio.NewWriter(conn),
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Reply is one statement's parsed server response: a status and, for
// OK_PRINT, the rendered CSV rows (spec.md §6.1).
type Reply struct {
	Status types.Status
	Body   []string
}

// Exec sends one DSL statement verbatim and waits for its framed reply: a
// status line, zero or more body lines, and a lone "." terminator
// (pkg/api's writeReply on the other end of the wire).
func (c *Client) Exec(statement string) (*Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintln(c.writer, statement); err != nil {
		return nil, fmt.Errorf("write statement: %w", err)
	}
	if err := c.writer.Flush(); err != nil {
		return nil, fmt.Errorf("flush statement: %w", err)
	}

	if !c.reader.Scan() {
		return nil, readErr(c.reader)
	}
	status, err := parseStatus(c.reader.Text())
	if err != nil {
		return nil, err
	}

	var body []string
	for c.reader.Scan() {
		line := c.reader.Text()
		if line == "." {
			return &Reply{Status: status, Body: body}, nil
		}
		body = append(body, line)
	}
	return nil, readErr(c.reader)
}

func readErr(s *bufio.Scanner) error {
	if err := s.Err(); err != nil {
		return fmt.Errorf("read reply: %w", err)
	}
	return fmt.Errorf("read reply: connection closed")
}

func parseStatus(line string) (types.Status, error) {
	for s := types.OkDone; s <= types.ExecutionError; s++ {
		if s.String() == line {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unrecognized status line %q", line)
}

// ok turns an error-status Reply into a *types.StatusError, and passes
// everything else through unchanged, so convenience methods below can
// return a single error value like any other Go API.
func ok(reply *Reply, err error) (*Reply, error) {
	if err != nil {
		return nil, err
	}
	if reply.Status >= types.UnknownCommand {
		var cause error
		if len(reply.Body) > 0 {
			cause = fmt.Errorf("%s", reply.Body[0])
		}
		return reply, types.NewStatusError(reply.Status, cause)
	}
	return reply, nil
}

// CreateDatabase issues create(db,"name").
func (c *Client) CreateDatabase(name string) error {
	_, err := ok(c.Exec(fmt.Sprintf(`create(db,%q)`, name)))
	return err
}

// CreateTable issues create(tbl,"name",db,columnCapacity).
func (c *Client) CreateTable(name, db string, columnCapacity int) error {
	_, err := ok(c.Exec(fmt.Sprintf(`create(tbl,%q,%s,%d)`, name, db, columnCapacity)))
	return err
}

// CreateColumn issues create(col,"name",db.tbl).
func (c *Client) CreateColumn(name, qualifiedTable string) error {
	_, err := ok(c.Exec(fmt.Sprintf(`create(col,%q,%s)`, name, qualifiedTable)))
	return err
}

// CreateIndex issues create(idx,db.tbl.col,kind,clustering).
func (c *Client) CreateIndex(qualifiedColumn, kind, clustering string) error {
	_, err := ok(c.Exec(fmt.Sprintf(`create(idx,%s,%s,%s)`, qualifiedColumn, kind, clustering)))
	return err
}

// Insert issues relational_insert(db.tbl,v,v,...).
func (c *Client) Insert(qualifiedTable string, values ...int32) error {
	stmt := fmt.Sprintf("relational_insert(%s", qualifiedTable)
	for _, v := range values {
		stmt += fmt.Sprintf(",%d", v)
	}
	stmt += ")"
	_, err := ok(c.Exec(stmt))
	return err
}

// Load issues load("path") and returns the server's row-count/timing
// message.
func (c *Client) Load(path string) (string, error) {
	reply, err := ok(c.Exec(fmt.Sprintf(`load(%q)`, path)))
	if err != nil {
		return "", err
	}
	if len(reply.Body) == 0 {
		return "", nil
	}
	return reply.Body[0], nil
}

// Shutdown issues the shutdown statement, which snapshots the active
// database and asks the server to stop (spec.md §6.3). The connection is
// unusable afterward; callers should Close it.
func (c *Client) Shutdown() error {
	_, err := ok(c.Exec("shutdown"))
	return err
}

// Snapshot issues the out-of-band snapshot admin verb against a running
// server, without asking it to stop.
func (c *Client) Snapshot() error {
	_, err := ok(c.Exec("snapshot"))
	return err
}
