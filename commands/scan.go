package commands

import (
	"strconv"

	"github.com/xenking/gorest-redis/command"
	"github.com/xenking/gorest-redis/rediserr"
	"github.com/xenking/gorest-redis/resp"
)

// ScanPage is the (next-cursor, page) pair every SCAN-family command
// replies with (§6 "SCAN family"). Cursor "0" means iteration is complete.
type ScanPage struct {
	Cursor string
	Items  []string
}

func mapScanPage(v resp.Value) (ScanPage, error) {
	if se, ok := rediserr.AsServerError(v); ok {
		return ScanPage{}, se
	}
	if v.Kind != resp.Array || len(v.Items) != 2 {
		return ScanPage{}, &rediserr.ConversionError{Want: "2-element array", Got: v.Kind}
	}
	cursor, _, err := command.MapString(v.Items[0])
	if err != nil {
		return ScanPage{}, err
	}
	items, err := command.MapStringSlice(v.Items[1])
	if err != nil {
		return ScanPage{}, err
	}
	return ScanPage{Cursor: cursor, Items: items}, nil
}

// ScanOptions configures the optional MATCH/COUNT clauses shared by every
// SCAN-family command.
type ScanOptions struct {
	Match string // empty means no MATCH clause
	Count int    // 0 means no COUNT clause
}

func (o ScanOptions) appendTo(args [][]byte) [][]byte {
	if o.Match != "" {
		args = append(args, bulk("MATCH"), bulk(o.Match))
	}
	if o.Count > 0 {
		args = append(args, bulk("COUNT"), bulk(strconv.Itoa(o.Count)))
	}
	return args
}

// Scan issues SCAN cursor [MATCH glob] [COUNT hint].
func Scan(cursor string, opts ScanOptions) *command.Command[ScanPage] {
	args := opts.appendTo([][]byte{bulk(cursor)})
	return command.New("SCAN", args, mapScanPage)
}

// HScan issues HSCAN key cursor [MATCH glob] [COUNT hint]; the returned page
// is a flat field/value array, matching HGETALL's wire shape.
func HScan(key, cursor string, opts ScanOptions) *command.Command[ScanPage] {
	args := opts.appendTo([][]byte{bulk(key), bulk(cursor)})
	return command.New("HSCAN", args, mapScanPage)
}

// SScan issues SSCAN key cursor [MATCH glob] [COUNT hint].
func SScan(key, cursor string, opts ScanOptions) *command.Command[ScanPage] {
	args := opts.appendTo([][]byte{bulk(key), bulk(cursor)})
	return command.New("SSCAN", args, mapScanPage)
}

// ZScan issues ZSCAN key cursor [MATCH glob] [COUNT hint]; the returned page
// is a flat member/score array.
func ZScan(key, cursor string, opts ScanOptions) *command.Command[ScanPage] {
	args := opts.appendTo([][]byte{bulk(key), bulk(cursor)})
	return command.New("ZSCAN", args, mapScanPage)
}
