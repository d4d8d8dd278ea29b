package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/attendance-go/internal/attendance"
	"github.com/garyellow/attendance-go/internal/config"
	"github.com/garyellow/attendance-go/internal/ctxutil"
	domerrors "github.com/garyellow/attendance-go/internal/errors"
	"github.com/garyellow/attendance-go/internal/export"
	"github.com/garyellow/attendance-go/internal/form"
	"github.com/garyellow/attendance-go/internal/sentry"
	"github.com/garyellow/attendance-go/internal/timeutil"
	"github.com/garyellow/attendance-go/internal/view"
)

const contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var commitErr = domerrors.NewWrapper("app", "commit")

func (a *Application) registerRoutes(api *gin.RouterGroup) {
	api.GET("/classroom", a.getClassroom)
	api.GET("/dates", a.listDates)
	api.GET("/students/:name/records", a.getStudentRecords)
	api.GET("/export.csv", a.exportCSV)

	day := api.Group("/days/:date")
	day.GET("/slots", a.getSlots)
	day.PUT("/draft", a.saveDraft)
	day.PATCH("/draft", a.patchDraft)
	day.DELETE("/draft", a.discardDraft)
	day.GET("/records", a.getRecords)
	day.GET("/records/:student/:period", a.getRecord)
	day.GET("/summary", a.getSummary)
	day.GET("/pivot", a.getPivot)
	day.POST("/commit", a.commit)
	day.GET("/export.xlsx", a.exportXLSX)
}

func (a *Application) summaryOptions() attendance.SummaryOptions {
	return attendance.SummaryOptions{
		CountRegularPresent:  a.cfg.Summary.CountRegularPresent,
		IncludeRegularAbsent: a.cfg.Summary.IncludeRegularAbsent,
		RateDecimals:         a.cfg.Summary.RateDecimals,
	}
}

// dayParam parses the :date parameter and adds it to the request context.
func (a *Application) dayParam(c *gin.Context) (time.Time, error) {
	date, err := timeutil.ParseDay(c.Param("date"), a.now, a.loc)
	if err != nil {
		return time.Time{}, domerrors.NewValidationError("date", err.Error())
	}
	c.Request = c.Request.WithContext(ctxutil.WithDate(c.Request.Context(), attendance.FormatDate(date)))
	return date, nil
}

// stageQuery parses ?stage= (default draft) and adds it to the request context.
func (a *Application) stageQuery(c *gin.Context) (attendance.Stage, error) {
	stage, err := attendance.ParseStage(c.Query("stage"))
	if err != nil {
		return "", domerrors.NewValidationError("stage", err.Error())
	}
	c.Request = c.Request.WithContext(ctxutil.WithStage(c.Request.Context(), string(stage)))
	return stage, nil
}

// dayAndStage parses both the :date parameter and ?stage=.
func (a *Application) dayAndStage(c *gin.Context) (time.Time, attendance.Stage, bool) {
	date, err := a.dayParam(c)
	if err != nil {
		a.respondError(c, err)
		return time.Time{}, "", false
	}
	stage, err := a.stageQuery(c)
	if err != nil {
		a.respondError(c, err)
		return time.Time{}, "", false
	}
	return date, stage, true
}

func (a *Application) dayRecords(ctx context.Context, stage attendance.Stage, date time.Time) ([]attendance.Record, error) {
	records, err := a.store.ListRecordsByDate(ctx, stage, date)
	if err != nil {
		return nil, err
	}
	return a.class.SortRecords(records), nil
}

func (a *Application) getClassroom(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"roster":           a.class.Roster,
		"periods":          a.class.Periods,
		"recurring_reason": a.class.Rules.Reason(),
		"rules":            a.class.RuleViews(),
	})
}

func (a *Application) listDates(c *gin.Context) {
	stage, err := a.stageQuery(c)
	if err != nil {
		a.respondError(c, err)
		return
	}
	dates, err := a.store.ListDates(c.Request.Context(), stage)
	if err != nil {
		a.respondError(c, err)
		return
	}
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = attendance.FormatDate(d)
	}
	c.JSON(http.StatusOK, gin.H{"stage": stage, "dates": out})
}

func (a *Application) getSlots(c *gin.Context) {
	date, err := a.dayParam(c)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":    attendance.FormatDate(date),
		"label":   timeutil.DayLabel(date),
		"weekday": attendance.KoreanWeekday(date.Weekday()),
		"periods": a.class.Periods,
		"slots":   a.class.ResolveDay(date),
	})
}

type markRequest struct {
	Student string `json:"student" binding:"required"`
	Period  string `json:"period" binding:"required"`
	Status  string `json:"status"`
	Reason  string `json:"reason" binding:"max=500"`
}

type draftRequest struct {
	Marks []markRequest `json:"marks" binding:"dive"`
}

// saveDraft builds the day's records from the submitted marks and the
// recurring-absence rules and upserts all of them into the draft.
// An empty body saves a day with no marks.
func (a *Application) saveDraft(c *gin.Context) {
	date, err := a.dayParam(c)
	if err != nil {
		a.respondError(c, err)
		return
	}
	ctx := ctxutil.WithStage(c.Request.Context(), string(attendance.StageDraft))
	c.Request = c.Request.WithContext(ctx)

	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		a.respondError(c, domerrors.NewValidationError("body", err.Error()))
		return
	}

	state := form.New(a.class, date)
	for i, m := range req.Marks {
		status, err := parseMarkStatus(fmt.Sprintf("marks[%d].status", i), m.Status)
		if err != nil {
			a.respondError(c, err)
			return
		}
		student, _ := a.class.ResolveStudent(m.Student)
		if err := state.Mark(student, m.Period, status, m.Reason); err != nil {
			a.respondError(c, err)
			return
		}
	}
	a.storeDraft(c, date, state)
}

type editRequest struct {
	Student string `json:"student" binding:"required"`
	Period  string `json:"period" binding:"required"`
	Action  string `json:"action" binding:"required,oneof=mark unmark reason"`
	Status  string `json:"status"`
	Reason  string `json:"reason" binding:"max=500"`
}

type patchDraftRequest struct {
	Edits []editRequest `json:"edits" binding:"required,min=1,dive"`
}

// patchDraft applies slot edits on top of the day's saved draft and saves
// the rebuilt day.
func (a *Application) patchDraft(c *gin.Context) {
	date, err := a.dayParam(c)
	if err != nil {
		a.respondError(c, err)
		return
	}
	ctx := ctxutil.WithStage(c.Request.Context(), string(attendance.StageDraft))
	c.Request = c.Request.WithContext(ctx)

	var req patchDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, domerrors.NewValidationError("body", err.Error()))
		return
	}

	saved, err := a.store.ListRecordsByDate(ctx, attendance.StageDraft, date)
	if err != nil {
		a.respondError(c, err)
		return
	}
	state := form.New(a.class, date)
	state.Restore(saved)

	for i, e := range req.Edits {
		student, _ := a.class.ResolveStudent(e.Student)
		switch e.Action {
		case "mark":
			var status attendance.Status
			if status, err = parseMarkStatus(fmt.Sprintf("edits[%d].status", i), e.Status); err == nil {
				err = state.Mark(student, e.Period, status, e.Reason)
			}
		case "unmark":
			err = state.Unmark(student, e.Period)
		case "reason":
			err = state.SetReason(student, e.Period, e.Reason)
		}
		if err != nil {
			a.respondError(c, err)
			return
		}
	}
	a.storeDraft(c, date, state)
}

func parseMarkStatus(field, raw string) (attendance.Status, error) {
	if raw == "" {
		return "", nil
	}
	status, err := attendance.ParseStatus(raw)
	if err != nil {
		return "", domerrors.NewValidationError(field, err.Error())
	}
	return status, nil
}

type markView struct {
	Student string            `json:"student"`
	Period  string            `json:"period"`
	Status  attendance.Status `json:"status"`
	Reason  string            `json:"reason,omitempty"`
}

// storeDraft saves the full day built from state and responds with the
// records, the live summaries and the manual marks in period then roster order.
func (a *Application) storeDraft(c *gin.Context, date time.Time, state *form.State) {
	ctx := c.Request.Context()
	records := state.Records()
	if err := a.store.SaveRecords(ctx, attendance.StageDraft, records); err != nil {
		a.respondError(c, err)
		return
	}

	auto := 0
	marks := make([]markView, 0, state.Len())
	for _, slot := range a.class.ResolveDay(date) {
		if slot.IsAutoAbsent {
			auto++
			continue
		}
		if m, ok := state.Marked(slot.Student, slot.Period); ok {
			marks = append(marks, markView{Student: slot.Student, Period: slot.Period, Status: m.Status, Reason: m.Reason})
		}
	}
	a.metrics.RecordAutoAbsent(auto)
	a.metrics.RecordSummary(string(attendance.StageDraft))

	a.logger.WithField("records", len(records)).
		WithField("marks", state.Len()).
		InfoContext(ctx, "Draft saved")
	c.JSON(http.StatusOK, gin.H{
		"date":      attendance.FormatDate(date),
		"records":   records,
		"marks":     marks,
		"summaries": state.Summaries(a.summaryOptions()),
	})
}

func (a *Application) discardDraft(c *gin.Context) {
	date, err := a.dayParam(c)
	if err != nil {
		a.respondError(c, err)
		return
	}
	n, err := a.store.DiscardDraft(c.Request.Context(), date)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": attendance.FormatDate(date), "discarded": n})
}

func (a *Application) getRecords(c *gin.Context) {
	date, stage, ok := a.dayAndStage(c)
	if !ok {
		return
	}
	records, err := a.dayRecords(c.Request.Context(), stage, date)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":    attendance.FormatDate(date),
		"stage":   stage,
		"records": records,
	})
}

// getRecord returns the record of one slot.
func (a *Application) getRecord(c *gin.Context) {
	date, stage, ok := a.dayAndStage(c)
	if !ok {
		return
	}
	student, _ := a.class.ResolveStudent(c.Param("student"))
	key := attendance.Key{Date: attendance.FormatDate(date), Student: student, Period: strings.TrimSpace(c.Param("period"))}
	rec, err := a.store.GetRecord(c.Request.Context(), stage, key)
	if err != nil {
		a.respondError(c, err)
		return
	}
	if rec == nil {
		a.respondError(c, fmt.Errorf("%s record %s/%s/%s: %w", stage, key.Date, key.Student, key.Period, domerrors.ErrNotFound))
		return
	}
	c.JSON(http.StatusOK, gin.H{"stage": stage, "record": rec})
}

func (a *Application) getSummary(c *gin.Context) {
	date, stage, ok := a.dayAndStage(c)
	if !ok {
		return
	}
	records, err := a.dayRecords(c.Request.Context(), stage, date)
	if err != nil {
		a.respondError(c, err)
		return
	}
	a.metrics.RecordSummary(string(stage))
	c.JSON(http.StatusOK, gin.H{
		"date":      attendance.FormatDate(date),
		"label":     timeutil.DayLabel(date),
		"stage":     stage,
		"summaries": a.class.Summaries(date, records, a.summaryOptions()),
	})
}

func (a *Application) getPivot(c *gin.Context) {
	date, stage, ok := a.dayAndStage(c)
	if !ok {
		return
	}
	records, err := a.dayRecords(c.Request.Context(), stage, date)
	if err != nil {
		a.respondError(c, err)
		return
	}
	pivot := view.Build(records, a.class.Roster, a.class.Periods)
	c.JSON(http.StatusOK, gin.H{
		"date":    attendance.FormatDate(date),
		"stage":   stage,
		"periods": pivot.Periods,
		"header":  pivot.Header("name"),
		"rows":    pivot.Rows,
	})
}

// commit moves the day's draft to final, then publishes the full final table.
// A failed publication does not undo the commit; it is reported in the response.
func (a *Application) commit(c *gin.Context) {
	date, err := a.dayParam(c)
	if err != nil {
		a.respondError(c, err)
		return
	}
	ctx := c.Request.Context()

	n, err := a.store.Commit(ctx, date)
	if err != nil {
		a.respondError(c, err)
		return
	}

	resp := gin.H{"date": attendance.FormatDate(date), "committed": n, "published": false}
	if a.publisher != nil {
		if err := a.publishFinal(ctx); err != nil {
			a.logger.WithError(err).ErrorContext(ctx, "Snapshot publication failed")
			sentry.CaptureError(ctx, err, sentry.Tags{"date": attendance.FormatDate(date), "route": c.FullPath()})
			resp["publish_error"] = domerrors.GetUserMessage(err)
		} else {
			resp["published"] = true
		}
	}
	c.JSON(http.StatusOK, resp)
}

// publishFinal publishes the whole final table on a context detached from the request.
func (a *Application) publishFinal(ctx context.Context) error {
	pubCtx, cancel := context.WithTimeout(ctxutil.PreserveTracing(ctx), config.SnapshotPublish)
	defer cancel()

	final, err := a.store.ListRecords(pubCtx, attendance.StageFinal)
	if err != nil {
		return commitErr.Wrap(err, "final records could not be read")
	}
	_, err = a.publisher.Publish(pubCtx, a.class.SortRecords(final))
	return err
}

func (a *Application) getStudentRecords(c *gin.Context) {
	stage, err := a.stageQuery(c)
	if err != nil {
		a.respondError(c, err)
		return
	}
	name, onRoster := a.class.ResolveStudent(c.Param("name"))
	records, err := a.store.ListRecordsByStudent(c.Request.Context(), stage, name)
	if err != nil {
		a.respondError(c, err)
		return
	}
	if len(records) == 0 && !onRoster {
		a.respondError(c, fmt.Errorf("student %q: %w", name, domerrors.ErrNotFound))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"student": name,
		"stage":   stage,
		"records": a.class.SortRecords(records),
	})
}

// exportCSV streams the flat table of a stage, optionally limited to ?date=.
func (a *Application) exportCSV(c *gin.Context) {
	start := time.Now()
	stage, err := a.stageQuery(c)
	if err != nil {
		a.respondError(c, err)
		return
	}
	ctx := c.Request.Context()

	filename := fmt.Sprintf("attendance_%s.csv", stage)
	var records []attendance.Record
	if raw := c.Query("date"); raw != "" {
		date, err := timeutil.ParseDay(raw, a.now, a.loc)
		if err != nil {
			a.respondError(c, domerrors.NewValidationError("date", err.Error()))
			return
		}
		filename = fmt.Sprintf("attendance_%s_%s.csv", stage, attendance.FormatDate(date))
		records, err = a.store.ListRecordsByDate(ctx, stage, date)
		if err != nil {
			a.respondError(c, err)
			return
		}
	} else {
		records, err = a.store.ListRecords(ctx, stage)
		if err != nil {
			a.respondError(c, err)
			return
		}
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, a.class.SortRecords(records), a.cfg.CSVBOM); err != nil {
		a.respondError(c, err)
		return
	}
	a.metrics.RecordExport("csv", time.Since(start).Seconds())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (a *Application) exportXLSX(c *gin.Context) {
	start := time.Now()
	date, stage, ok := a.dayAndStage(c)
	if !ok {
		return
	}
	records, err := a.dayRecords(c.Request.Context(), stage, date)
	if err != nil {
		a.respondError(c, err)
		return
	}

	wb := export.Workbook{
		Title:     fmt.Sprintf("%s %s", timeutil.DayLabel(date), stage),
		Records:   records,
		Summaries: a.class.Summaries(date, records, a.summaryOptions()),
		Pivot:     view.Build(records, a.class.Roster, a.class.Periods),
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, wb); err != nil {
		a.respondError(c, err)
		return
	}
	a.metrics.RecordExport("xlsx", time.Since(start).Seconds())
	filename := fmt.Sprintf("attendance_%s_%s.xlsx", stage, attendance.FormatDate(date))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentTypeXLSX, buf.Bytes())
}
