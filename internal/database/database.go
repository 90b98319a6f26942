// Package database exposes SQL access to scripts through four operators
// built on database/sql, with the sqlite, mysql, and postgres drivers
// compiled in. A connection is an opaque pointer cell whose destructor
// closes the handle if a script never does.
package database

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
	"github.com/knotlang/knot/internal/registry"
	"github.com/knotlang/knot/internal/strs"
)

// Conn is the payload of a connection cell.
type Conn struct {
	ID     string
	Driver string
	DB     *sql.DB
	closed bool
}

// Close is idempotent so it can serve as both the DbClose operator and
// the GC-sweep destructor.
func (c *Conn) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.DB.Close()
}

func driverName(name string) (string, bool) {
	switch name {
	case "sqlite", "sqlite3":
		return "sqlite", true
	case "mysql":
		return "mysql", true
	case "postgres", "postgresql":
		return "postgres", true
	}
	return "", false
}

func fail(in *machine.Interpreter, msg string) heap.Status {
	in.Push(heap.NewString(in.Mem, msg))
	return in.St.Error
}

func need(in *machine.Interpreter, n int, name string) heap.Status {
	if heap.ListLen(in.Stack) < n {
		return fail(in, "arity error: "+name+" needs operands on the stack")
	}
	return nil
}

func popConn(in *machine.Interpreter, name string) (*Conn, heap.Status) {
	c := in.Pop()
	if c == nil || c.Tag != heap.TagPointer {
		return nil, fail(in, "type error: "+name+" needs a database connection")
	}
	conn, ok := c.Ptr.(*Conn)
	if !ok {
		return nil, fail(in, "type error: "+name+" needs a database connection")
	}
	if conn.closed {
		return nil, fail(in, name+": connection already closed")
	}
	return conn, nil
}

// columnCell converts one scanned column into a cell: NULL becomes the
// empty list, integers/floats/bools their variants, bytes a string.
func columnCell(in *machine.Interpreter, v any) *heap.Cell {
	switch x := v.(type) {
	case nil:
		return nil
	case bool:
		return heap.Bool(in.Mem, x)
	case int64:
		return heap.Int(in.Mem, x)
	case float64:
		return heap.Float(in.Mem, x)
	case []byte:
		return strs.FromString(in.Mem, string(x))
	case string:
		return strs.FromString(in.Mem, x)
	}
	return strs.FromString(in.Mem, sqlText(v))
}

func sqlText(v any) string {
	type stringer interface{ String() string }
	if s, ok := v.(stringer); ok {
		return s.String()
	}
	return ""
}

func dbOpen(m heap.Machine, _ *heap.Cell) heap.Status {
	in := m.(*machine.Interpreter)
	if st := need(in, 2, "DbOpen"); st != nil {
		return st
	}
	dsn := in.Pop()
	driver := in.Pop()
	name, ok := driverName(strs.Text(driver))
	if !ok {
		return fail(in, "DbOpen: unknown driver "+strs.Text(driver))
	}
	db, err := sql.Open(name, strs.Text(dsn))
	if err != nil {
		return fail(in, "DbOpen: "+err.Error())
	}
	conn := &Conn{ID: uuid.NewString(), Driver: name, DB: db}
	in.Push(heap.Pointer(in.Mem, conn, nil, func(*heap.Cell) { conn.Close() }))
	return nil
}

func dbExec(m heap.Machine, _ *heap.Cell) heap.Status {
	in := m.(*machine.Interpreter)
	if st := need(in, 2, "DbExec"); st != nil {
		return st
	}
	query := in.Pop()
	conn, st := popConn(in, "DbExec")
	if st != nil {
		return st
	}
	res, err := conn.DB.Exec(strs.Text(query))
	if err != nil {
		return fail(in, "DbExec: "+err.Error())
	}
	n, _ := res.RowsAffected()
	in.Push(heap.Int(in.Mem, n))
	return nil
}

func dbQuery(m heap.Machine, _ *heap.Cell) heap.Status {
	in := m.(*machine.Interpreter)
	if st := need(in, 2, "DbQuery"); st != nil {
		return st
	}
	query := in.Pop()
	conn, st := popConn(in, "DbQuery")
	if st != nil {
		return st
	}
	rows, err := conn.DB.Query(strs.Text(query))
	if err != nil {
		return fail(in, "DbQuery: "+err.Error())
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fail(in, "DbQuery: "+err.Error())
	}
	var out []*heap.Cell
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fail(in, "DbQuery: "+err.Error())
		}
		row := make([]*heap.Cell, len(cols))
		for i, v := range raw {
			row[i] = columnCell(in, v)
		}
		out = append(out, heap.SliceToList(in.Mem, row))
	}
	if err := rows.Err(); err != nil {
		return fail(in, "DbQuery: "+err.Error())
	}
	in.Push(heap.SliceToList(in.Mem, out))
	return nil
}

func dbClose(m heap.Machine, _ *heap.Cell) heap.Status {
	in := m.(*machine.Interpreter)
	if st := need(in, 1, "DbClose"); st != nil {
		return st
	}
	conn, st := popConn(in, "DbClose")
	if st != nil {
		return st
	}
	conn.Close()
	return nil
}

// Module bundles the SQL operators.
func Module() *registry.Module {
	return &registry.Module{
		Name: "database",
		Funcs: []*heap.ModFunc{
			{Name: "DbOpen", Doc: "(driver dsn -- conn) open a database", Fn: dbOpen},
			{Name: "DbExec", Doc: "(conn sql -- rows-affected)", Fn: dbExec},
			{Name: "DbQuery", Doc: "(conn sql -- rows) list of row lists", Fn: dbQuery},
			{Name: "DbClose", Doc: "(conn -- )", Fn: dbClose},
		},
	}
}
