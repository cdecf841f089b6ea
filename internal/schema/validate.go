package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

const (
	rootPath   = "$"
	dateLayout = "2006-01-02"
)

// Validate converts a parsed JSON value into daily records.
//
// The value must be an array of objects. Records are checked in order and the
// first violation aborts the whole batch.
//
// A top level that is not an array is reported as a *Violation whose Path is
// "$" and whose Expected is "array of daily records"; per-record violations
// always carry an indexed path such as "$[0].date".
func Validate(v any) ([]DailyRecord, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, violation(rootPath, "array of daily records", v)
	}
	days := make([]DailyRecord, 0, len(items))
	for i, item := range items {
		day, err := decodeDailyRecord(item, indexPath(rootPath, i))
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}

func decodeDailyRecord(v any, path string) (DailyRecord, error) {
	obj, err := asObject(v, path)
	if err != nil {
		return DailyRecord{}, err
	}
	var day DailyRecord
	if day.Date, err = obj.date("date"); err != nil {
		return DailyRecord{}, err
	}
	if day.TotalActiveUsers, err = obj.requiredCount("total_active_users"); err != nil {
		return DailyRecord{}, err
	}
	if day.TotalEngagedUsers, err = obj.requiredCount("total_engaged_users"); err != nil {
		return DailyRecord{}, err
	}
	if day.IDECompletions, err = decodeAggregate(obj, "copilot_ide_code_completions", decodeIDECompletions); err != nil {
		return DailyRecord{}, err
	}
	if day.IDEChat, err = decodeAggregate(obj, "copilot_ide_chat", decodeIDEChat); err != nil {
		return DailyRecord{}, err
	}
	if day.DotcomChat, err = decodeAggregate(obj, "copilot_dotcom_chat", decodeDotcomChat); err != nil {
		return DailyRecord{}, err
	}
	if day.DotcomPullRequests, err = decodeAggregate(obj, "copilot_dotcom_pull_requests", decodeDotcomPullRequests); err != nil {
		return DailyRecord{}, err
	}
	return day, nil
}

func decodeIDECompletions(obj object) (IDECompletions, error) {
	var agg IDECompletions
	var err error
	if agg.TotalEngagedUsers, err = obj.count("total_engaged_users"); err != nil {
		return IDECompletions{}, err
	}
	if agg.Editors, err = decodeList(obj, "editors", decodeCompletionEditor); err != nil {
		return IDECompletions{}, err
	}
	if agg.Languages, err = decodeList(obj, "languages", decodeLanguageSummary); err != nil {
		return IDECompletions{}, err
	}
	return agg, nil
}

func decodeLanguageSummary(obj object) (LanguageSummary, error) {
	var lang LanguageSummary
	var err error
	if lang.Name, err = obj.optionalString("name"); err != nil {
		return LanguageSummary{}, err
	}
	if lang.TotalEngagedUsers, err = obj.count("total_engaged_users"); err != nil {
		return LanguageSummary{}, err
	}
	return lang, nil
}

func decodeCompletionEditor(obj object) (CompletionEditor, error) {
	var editor CompletionEditor
	var err error
	if editor.Name, err = obj.name(); err != nil {
		return CompletionEditor{}, err
	}
	if editor.TotalEngagedUsers, err = obj.count("total_engaged_users"); err != nil {
		return CompletionEditor{}, err
	}
	if editor.Models, err = decodeList(obj, "models", decodeCompletionModel); err != nil {
		return CompletionEditor{}, err
	}
	return editor, nil
}

func decodeCompletionModel(obj object) (CompletionModel, error) {
	var m CompletionModel
	var err error
	if m.Name, err = obj.name(); err != nil {
		return CompletionModel{}, err
	}
	if m.IsCustomModel, err = obj.flag("is_custom_model"); err != nil {
		return CompletionModel{}, err
	}
	if m.TotalEngagedUsers, err = obj.count("total_engaged_users"); err != nil {
		return CompletionModel{}, err
	}
	if m.Languages, err = decodeList(obj, "languages", decodeLanguageMetrics); err != nil {
		return CompletionModel{}, err
	}
	return m, nil
}

func decodeLanguageMetrics(obj object) (LanguageMetrics, error) {
	var lang LanguageMetrics
	var err error
	if lang.Name, err = obj.name(); err != nil {
		return LanguageMetrics{}, err
	}
	counters := []struct {
		key    string
		target *int64
	}{
		{"total_engaged_users", &lang.TotalEngagedUsers},
		{"total_code_acceptances", &lang.TotalCodeAcceptances},
		{"total_code_suggestions", &lang.TotalCodeSuggestions},
		{"total_code_lines_accepted", &lang.TotalCodeLinesAccepted},
		{"total_code_lines_suggested", &lang.TotalCodeLinesSuggested},
	}
	for _, c := range counters {
		if *c.target, err = obj.count(c.key); err != nil {
			return LanguageMetrics{}, err
		}
	}
	return lang, nil
}

func decodeIDEChat(obj object) (IDEChat, error) {
	var agg IDEChat
	var err error
	if agg.TotalEngagedUsers, err = obj.count("total_engaged_users"); err != nil {
		return IDEChat{}, err
	}
	if agg.Editors, err = decodeList(obj, "editors", decodeChatEditor); err != nil {
		return IDEChat{}, err
	}
	return agg, nil
}

func decodeChatEditor(obj object) (ChatEditor, error) {
	var editor ChatEditor
	var err error
	if editor.Name, err = obj.name(); err != nil {
		return ChatEditor{}, err
	}
	if editor.TotalEngagedUsers, err = obj.count("total_engaged_users"); err != nil {
		return ChatEditor{}, err
	}
	if editor.Models, err = decodeList(obj, "models", decodeChatModel); err != nil {
		return ChatEditor{}, err
	}
	return editor, nil
}

func decodeDotcomChat(obj object) (DotcomChat, error) {
	var agg DotcomChat
	var err error
	if agg.TotalEngagedUsers, err = obj.count("total_engaged_users"); err != nil {
		return DotcomChat{}, err
	}
	if agg.Models, err = decodeList(obj, "models", decodeChatModel); err != nil {
		return DotcomChat{}, err
	}
	return agg, nil
}

func decodeChatModel(obj object) (ChatModel, error) {
	var m ChatModel
	var err error
	if m.Name, err = obj.name(); err != nil {
		return ChatModel{}, err
	}
	if m.IsCustomModel, err = obj.flag("is_custom_model"); err != nil {
		return ChatModel{}, err
	}
	if m.TotalChats, err = obj.count("total_chats"); err != nil {
		return ChatModel{}, err
	}
	if m.TotalEngagedUsers, err = obj.count("total_engaged_users"); err != nil {
		return ChatModel{}, err
	}
	if m.CopyEvents, err = obj.nullableCount("total_chat_copy_events"); err != nil {
		return ChatModel{}, err
	}
	if m.InsertionEvents, err = obj.nullableCount("total_chat_insertion_events"); err != nil {
		return ChatModel{}, err
	}
	return m, nil
}

func decodeDotcomPullRequests(obj object) (DotcomPullRequests, error) {
	var agg DotcomPullRequests
	var err error
	if agg.TotalEngagedUsers, err = obj.count("total_engaged_users"); err != nil {
		return DotcomPullRequests{}, err
	}
	if agg.Repositories, err = decodeList(obj, "repositories", decodeRepository); err != nil {
		return DotcomPullRequests{}, err
	}
	return agg, nil
}

func decodeRepository(obj object) (Repository, error) {
	var repo Repository
	var err error
	if repo.Name, err = obj.name(); err != nil {
		return Repository{}, err
	}
	if repo.TotalEngagedUsers, err = obj.count("total_engaged_users"); err != nil {
		return Repository{}, err
	}
	if repo.Models, err = decodeList(obj, "models", decodePRModel); err != nil {
		return Repository{}, err
	}
	return repo, nil
}

func decodePRModel(obj object) (PRModel, error) {
	var m PRModel
	var err error
	if m.Name, err = obj.name(); err != nil {
		return PRModel{}, err
	}
	if m.IsCustomModel, err = obj.flag("is_custom_model"); err != nil {
		return PRModel{}, err
	}
	if m.TotalEngagedUsers, err = obj.count("total_engaged_users"); err != nil {
		return PRModel{}, err
	}
	if m.TotalPRSummariesCreated, err = obj.count("total_pr_summaries_created"); err != nil {
		return PRModel{}, err
	}
	return m, nil
}

// decodeAggregate decodes an optional nested object. Absent or null yields the zero aggregate.
func decodeAggregate[T any](parent object, key string, decode func(object) (T, error)) (T, error) {
	var zero T
	raw, ok := parent.fields[key]
	if !ok || raw == nil {
		return zero, nil
	}
	obj, err := asObject(raw, fieldPath(parent.path, key))
	if err != nil {
		return zero, err
	}
	return decode(obj)
}

// decodeList decodes an optional array of objects. Absent or null yields an empty list.
func decodeList[T any](parent object, key string, decode func(object) (T, error)) ([]T, error) {
	raw, ok := parent.fields[key]
	if !ok || raw == nil {
		return nil, nil
	}
	path := fieldPath(parent.path, key)
	items, ok := raw.([]any)
	if !ok {
		return nil, violation(path, "array", raw)
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		obj, err := asObject(item, indexPath(path, i))
		if err != nil {
			return nil, err
		}
		v, err := decode(obj)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// object is a JSON object together with its location in the document.
type object struct {
	path   string
	fields map[string]any
}

func asObject(v any, path string) (object, error) {
	fields, ok := v.(map[string]any)
	if !ok {
		return object{}, violation(path, "object", v)
	}
	return object{path: path, fields: fields}, nil
}

func (o object) name() (string, error) {
	return o.requiredString("name")
}

func (o object) requiredString(key string) (string, error) {
	path := fieldPath(o.path, key)
	raw, ok := o.fields[key]
	if !ok {
		return "", missing(path, "string")
	}
	s, ok := raw.(string)
	if !ok {
		return "", violation(path, "string", raw)
	}
	return s, nil
}

// optionalString reads key as a string, defaulting to "" when absent.
func (o object) optionalString(key string) (string, error) {
	raw, ok := o.fields[key]
	if !ok {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", violation(fieldPath(o.path, key), "string", raw)
	}
	return s, nil
}

func (o object) date(key string) (string, error) {
	s, err := o.requiredString(key)
	if err != nil {
		return "", err
	}
	path := fieldPath(o.path, key)
	if s == "" {
		return "", violation(path, "non-empty date", s)
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", violation(path, "date (YYYY-MM-DD)", s)
	}
	return s, nil
}

func (o object) flag(key string) (bool, error) {
	path := fieldPath(o.path, key)
	raw, ok := o.fields[key]
	if !ok {
		return false, missing(path, "boolean")
	}
	b, ok := raw.(bool)
	if !ok {
		return false, violation(path, "boolean", raw)
	}
	return b, nil
}

func (o object) requiredCount(key string) (int64, error) {
	raw, ok := o.fields[key]
	if !ok {
		return 0, missing(fieldPath(o.path, key), "integer")
	}
	return toCount(raw, fieldPath(o.path, key))
}

// count reads an optional counter; absent means 0, null is rejected.
func (o object) count(key string) (int64, error) {
	raw, ok := o.fields[key]
	if !ok {
		return 0, nil
	}
	return toCount(raw, fieldPath(o.path, key))
}

// nullableCount reads a counter that may be absent or explicitly null.
func (o object) nullableCount(key string) (*int64, error) {
	raw, ok := o.fields[key]
	if !ok || raw == nil {
		return nil, nil
	}
	n, err := toCount(raw, fieldPath(o.path, key))
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func toCount(raw any, path string) (int64, error) {
	num, ok := raw.(json.Number)
	if !ok {
		return 0, violation(path, "integer", raw)
	}
	n, err := num.Int64()
	if err != nil {
		// Accept integral values written in float or exponent form, e.g. 10.0 or 1e3.
		f, ferr := num.Float64()
		if ferr != nil || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
			return 0, violation(path, "integer", raw)
		}
		n = int64(f)
	}
	if n < 0 {
		return 0, violation(path, "non-negative integer", raw)
	}
	return n, nil
}

func fieldPath(parent, key string) string {
	return parent + "." + key
}

func indexPath(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}
