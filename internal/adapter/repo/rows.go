package repo

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// The remote functions prefix their output columns with out_ to avoid clashing
// with parameter names inside plpgsql.
const outPrefix = "out_"

// record is one reshaped result row keyed by column name without the out_
// prefix. Accessors coerce SQL nulls and unexpected types to zero values.
type record map[string]any

func collect(rows pgx.Rows) ([]record, error) {
	defer rows.Close()
	var out []record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		fields := rows.FieldDescriptions()
		rec := make(record, len(fields))
		for i, fd := range fields {
			if i >= len(values) {
				break
			}
			rec[columnName(fd.Name)] = values[i]
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func columnName(name string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), outPrefix)
}

func (r record) str(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func (r record) int64(key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int16:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	case pgtype.Numeric:
		d := numericToDecimal(v)
		return d.IntPart()
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

func (r record) decimal(key string) decimal.Decimal {
	switch v := r[key].(type) {
	case pgtype.Numeric:
		return numericToDecimal(v)
	case float64:
		return decimal.NewFromFloat(v)
	case float32:
		return decimal.NewFromFloat32(v)
	case int64:
		return decimal.NewFromInt(v)
	case int32:
		return decimal.NewFromInt32(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case string:
		return parseMoney(v)
	default:
		return decimal.Zero
	}
}

func (r record) time(key string) time.Time {
	switch v := r[key].(type) {
	case time.Time:
		return v
	case pgtype.Date:
		if v.Valid && v.InfinityModifier == pgtype.Finite {
			return v.Time
		}
	case pgtype.Timestamptz:
		if v.Valid && v.InfinityModifier == pgtype.Finite {
			return v.Time
		}
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func (r record) bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	default:
		return false
	}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(new(big.Int).Set(n.Int), n.Exp)
}

// parseMoney accepts plain numerics and Postgres money text such as "$1,250.00".
func parseMoney(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	s = strings.NewReplacer("$", "", ",", "", "(", "", ")", "").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		return d.Neg()
	}
	return d
}
