package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/solardash/internal/analysis"
	"github.com/KaramelBytes/solardash/internal/dataset"
	"github.com/KaramelBytes/solardash/internal/export"
)

const loadTimeout = 60 * time.Second

// selected loads the table and applies the country query parameter. Without
// any country parameter every country is kept; parameters that are all empty
// select nothing.
func (s *Server) selected(c *gin.Context) (*dataset.Table, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), loadTimeout)
	defer cancel()

	t, err := s.data.Load(ctx)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	values, ok := c.GetQueryArray("country")
	if !ok {
		return t, true
	}
	var labels []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				labels = append(labels, part)
			}
		}
	}
	return analysis.Filter(t, dataset.NewCountrySet(labels...)), true
}

func (s *Server) fail(c *gin.Context, err error) {
	var loadErr *dataset.DataLoadError
	var colErr *dataset.InvalidColumnError
	switch {
	case errors.As(err, &loadErr), errors.Is(err, dataset.ErrNoSources):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.As(err, &colErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func queryInt(c *gin.Context, key string, def, floor int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < floor {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s", key)})
		return 0, false
	}
	return v, true
}

func (s *Server) handleCountries(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), loadTimeout)
	defer cancel()

	t, err := s.data.Load(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	counts := map[string]int{}
	for _, r := range t.Rows {
		counts[r.Country]++
	}
	out := make([]CountryJSON, 0, len(counts))
	for _, country := range t.Countries() {
		out = append(out, CountryJSON{Country: country, Rows: counts[country]})
	}
	c.JSON(http.StatusOK, gin.H{
		"data": out,
		"meta": gin.H{"count": len(out)},
	})
}

func (s *Server) handleRows(c *gin.Context) {
	limit, ok := queryInt(c, "limit", s.opt.RowLimit, 0)
	if !ok {
		return
	}
	t, ok := s.selected(c)
	if !ok {
		return
	}
	head := t.Head(limit)
	rows := make([][]string, 0, head.Len())
	for _, r := range head.Rows {
		rec := make([]string, len(head.Columns))
		for i, col := range head.Columns {
			rec[i] = r.Cell(col)
		}
		rows = append(rows, rec)
	}
	c.JSON(http.StatusOK, gin.H{
		"columns": head.Columns,
		"rows":    rows,
		"meta":    gin.H{"count": len(rows), "total": t.Len()},
	})
}

func (s *Server) handleSummary(c *gin.Context) {
	opt := s.opt.Summary
	if cols := c.Query("columns"); cols != "" {
		opt.Columns = strings.Split(cols, ",")
	}
	t, ok := s.selected(c)
	if !ok {
		return
	}
	sum, err := analysis.Summarize(t, opt)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := NewSummaryJSON(sum)
	c.JSON(http.StatusOK, gin.H{
		"data": out,
		"meta": gin.H{"columns": sum.Columns, "count": len(out)},
	})
}

func (s *Server) handleTop(c *gin.Context) {
	k, ok := queryInt(c, "k", s.opt.TopK, 0)
	if !ok {
		return
	}
	column := c.DefaultQuery("column", s.opt.RankColumn)
	t, ok := s.selected(c)
	if !ok {
		return
	}
	recs, err := analysis.TopK(t, column, k)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := NewRankingJSON(recs)
	c.JSON(http.StatusOK, gin.H{
		"data": out,
		"meta": gin.H{"column": column, "k": k},
	})
}

func (s *Server) handleDistribution(c *gin.Context) {
	column := c.DefaultQuery("column", dataset.ColGHI)
	t, ok := s.selected(c)
	if !ok {
		return
	}
	stats, err := analysis.Distribution(t, column)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := NewBoxJSON(stats)
	c.JSON(http.StatusOK, gin.H{
		"data": out,
		"meta": gin.H{"column": column},
	})
}

func (s *Server) handleSeries(c *gin.Context) {
	country := c.Query("country")
	if country == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "country is required"})
		return
	}
	limit, ok := queryInt(c, "limit", s.opt.SeriesLimit, 1)
	if !ok {
		return
	}
	column := c.DefaultQuery("column", dataset.ColGHI)

	ctx, cancel := context.WithTimeout(c.Request.Context(), loadTimeout)
	defer cancel()
	t, err := s.data.Load(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	points, err := analysis.Series(t, country, column, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := NewPointJSON(points)
	c.JSON(http.StatusOK, gin.H{
		"data": out,
		"meta": gin.H{"country": country, "column": column, "count": len(out)},
	})
}

func (s *Server) handleExport(c *gin.Context) {
	t, ok := s.selected(c)
	if !ok {
		return
	}
	name := s.opt.ExportName
	if name == "" {
		name = export.DefaultFileName
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Status(http.StatusOK)
	if err := export.WriteTable(c.Writer, t); err != nil {
		s.log.Error("export failed", "error", err)
	}
}
