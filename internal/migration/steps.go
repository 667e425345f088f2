package migration

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/eltiw/internal/model"
)

const dateLayout = "2006-01-02"

// backfillDefaults (0 → 1) дописывает id, отметки времени, пустые истории, категории
// и флаги записям, созданным до их появления.
func backfillDefaults(doc map[string]any, m *Migrator) {
	now := m.now().UTC().Format(time.RFC3339Nano)

	goals := objects(doc["goals"])
	for _, g := range goals {
		setDefault(g, "id", m.newID)
		setDefault(g, "createdAt", func() string { return now })
		setDefault(g, "updatedAt", func() string { return asString(g["createdAt"]) })
		setDefault(g, "category", func() string { return string(model.GoalCategoryOther) })
		if _, ok := g["isCompleted"].(bool); !ok {
			g["isCompleted"] = asBool(g["isCompleted"])
		}
		progress := objects(g["progress"])
		for _, p := range progress {
			setDefault(p, "id", m.newID)
			setDefault(p, "date", func() string { return asString(g["createdAt"]) })
		}
		g["progress"] = toAny(progress)
	}
	doc["goals"] = toAny(goals)

	loans := objects(doc["loans"])
	for _, l := range loans {
		setDefault(l, "id", m.newID)
		setDefault(l, "createdAt", func() string { return now })
		setDefault(l, "updatedAt", func() string { return asString(l["createdAt"]) })
		setDefault(l, "category", func() string { return string(model.LoanCategoryOther) })
		if _, ok := l["amountPaid"]; !ok {
			l["amountPaid"] = json.Number("0")
		}
		if _, ok := l["isRepaid"].(bool); !ok {
			l["isRepaid"] = asBool(l["isRepaid"])
		}
		payments := objects(l["paymentHistory"])
		for _, p := range payments {
			setDefault(p, "id", m.newID)
			setDefault(p, "date", func() string { return asString(l["createdAt"]) })
		}
		l["paymentHistory"] = toAny(payments)
	}
	doc["loans"] = toAny(loans)
}

// normalizeRecords (1 → 2) приводит типы полей, даты к RFC 3339 и категории к закрытому
// перечню, отбрасывает записи истории с неположительной суммой и сверяет сумму выплат
// займа с историей платежей.
func normalizeRecords(doc map[string]any, m *Migrator) {
	now := m.now().UTC()

	goals := objects(doc["goals"])
	for _, g := range goals {
		for _, key := range []string{"id", "name", "description"} {
			g[key] = asString(g[key])
		}
		g["cost"] = asNumber(g["cost"]).String()
		g["isCompleted"] = asBool(g["isCompleted"])
		if !model.GoalCategory(asString(g["category"])).Valid() {
			g["category"] = string(model.GoalCategoryOther)
		}
		normalizeDates(g, now, "targetDate", "createdAt", "updatedAt")
		g["progress"] = toAny(normalizeEntries(objects(g["progress"]), now))
	}
	doc["goals"] = toAny(goals)

	loans := objects(doc["loans"])
	for _, l := range loans {
		for _, key := range []string{"id", "borrowerName", "notes", "followupNotes"} {
			l[key] = asString(l[key])
		}
		if !model.LoanCategory(asString(l["category"])).Valid() {
			l["category"] = string(model.LoanCategoryOther)
		}
		normalizeDates(l, now, "deadline", "createdAt", "updatedAt")
		if d, ok := asDate(l["nextFollowupDate"]); ok {
			l["nextFollowupDate"] = d.Format(time.RFC3339Nano)
		} else {
			delete(l, "nextFollowupDate")
		}

		payments := normalizeEntries(objects(l["paymentHistory"]), now)
		paid := decimal.Zero
		for _, p := range payments {
			paid = paid.Add(asNumber(p["amount"]))
			if _, ok := p["method"]; ok {
				p["method"] = asString(p["method"])
			}
		}
		l["paymentHistory"] = toAny(payments)

		amount := asNumber(l["amount"])
		amountPaid := decimal.Max(asNumber(l["amountPaid"]), paid)
		l["amount"] = amount.String()
		l["amountPaid"] = amountPaid.String()

		repaid := asBool(l["isRepaid"])
		if amount.IsPositive() && amountPaid.GreaterThanOrEqual(amount) {
			repaid = true
		}
		l["isRepaid"] = repaid
	}
	doc["loans"] = toAny(loans)
}

func normalizeEntries(entries []map[string]any, now time.Time) []map[string]any {
	res := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		amount := asNumber(e["amount"])
		if !amount.IsPositive() {
			continue
		}
		e["id"] = asString(e["id"])
		e["amount"] = amount.String()
		if _, ok := e["note"]; ok {
			e["note"] = asString(e["note"])
		}
		normalizeDates(e, now, "date")
		res = append(res, e)
	}
	return res
}

func normalizeDates(rec map[string]any, fallback time.Time, keys ...string) {
	for _, key := range keys {
		d, ok := asDate(rec[key])
		if !ok {
			d = fallback
		}
		rec[key] = d.UTC().Format(time.RFC3339Nano)
	}
}

// setDefault записывает значение, если поле отсутствует или пустое.
func setDefault(rec map[string]any, key string, value func() string) {
	if s := asString(rec[key]); s != "" {
		return
	}
	rec[key] = value()
}

// objects возвращает элементы-объекты массива; остальные отбрасываются.
func objects(v any) []map[string]any {
	arr, _ := v.([]any)
	res := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		if obj, ok := item.(map[string]any); ok {
			res = append(res, obj)
		}
	}
	return res
}

func toAny(objs []map[string]any) []any {
	res := make([]any, len(objs))
	for i, o := range objs {
		res[i] = o
	}
	return res
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	}
	return ""
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	}
	return false
}

func asNumber(v any) decimal.Decimal {
	var s string
	switch n := v.(type) {
	case json.Number:
		s = n.String()
	case string:
		s = strings.TrimSpace(n)
	default:
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// asDate разбирает дату формы (2006-01-02), RFC 3339 или миллисекунды Unix.
func asDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case string:
		d = strings.TrimSpace(d)
		if t, err := time.Parse(dateLayout, d); err == nil {
			return t, true
		}
		if t, err := time.Parse(time.RFC3339, d); err == nil {
			return t, true
		}
	case json.Number:
		if ms, err := d.Int64(); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
	}
	return time.Time{}, false
}
