package services

import (
	"fmt"
	"log"
	"math"
	"net/url"
	"sort"
	"strconv"

	model "github.com/opencivica/AccessPDF/models"
)

// FilterLink is a reporting drill-down: a label plus the query parameters
// that re-filter the document list to the labeled slice. The caller's
// existing filters are preserved and the new dimension merged in.
type FilterLink struct {
	Title  string     `json:"title"`
	Params url.Values `json:"params"`
}

// YearBin is one fixed modification-year range and its document count.
type YearBin struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CategoryStatusRow is one cross-tab row: a category's document count per
// workflow status, zero-filled, plus the row total.
type CategoryStatusRow struct {
	Category string         `json:"category"`
	Counts   map[string]int `json:"counts"`
	Total    int            `json:"total"`
}

// InsightLinks groups the drill-down links by dimension.
type InsightLinks struct {
	Complexity []FilterLink `json:"complexity"`
	Years      []FilterLink `json:"years"`
	Decision   []FilterLink `json:"decision"`
}

// SiteInsights is the reporting view over one site's filtered documents.
type SiteInsights struct {
	Years          []YearBin           `json:"years"`
	CategoryGroups []CategoryStatusRow `json:"category_groups"`
	Links          InsightLinks        `json:"links"`
}

type yearRange struct {
	label string
	min   int
	max   int
}

// yearBins are the fixed histogram ranges; open ends use the int extremes.
var yearBins = []yearRange{
	{"< 2000", math.MinInt, 1999},
	{"2000-2005", 2000, 2005},
	{"2006-2011", 2006, 2011},
	{"2012-2017", 2012, 2017},
	{"2018-2023", 2018, 2023},
	{"> 2023", 2024, math.MaxInt},
}

// BuildSiteInsights aggregates a site's documents, narrowed by the caller's
// category/department/status filters, into the year histogram, the
// category×status cross-tab and the drill-down links.
func (s *DocumentService) BuildSiteInsights(site *model.Site, query url.Values) (*SiteInsights, error) {
	documents, err := s.ListDocuments(site.ID, DocumentFilters{
		Category:   query.Get("category"),
		Department: query.Get("department"),
		Status:     query.Get("status"),
	})
	if err != nil {
		log.Printf("[BuildSiteInsights] Error fetching documents for site %s: %v", site.ID, err)
		return nil, err
	}

	insights := &SiteInsights{
		Years:          binYears(documents),
		CategoryGroups: crossTabulate(documents),
	}
	insights.Links = s.buildLinks(documents, insights.Years, query)
	return insights, nil
}

// binYears groups documents by modification year and re-bins into the fixed
// ranges. Documents without a date land in a trailing Unknown bucket,
// emitted only when nonzero.
func binYears(documents []model.Document) []YearBin {
	unknown := 0
	perYear := make(map[int]int)
	for _, doc := range documents {
		year := doc.ModificationYear()
		if year == "Unknown" {
			unknown++
			continue
		}
		parsed, err := strconv.Atoi(year)
		if err != nil {
			unknown++
			continue
		}
		perYear[parsed]++
	}

	bins := make([]YearBin, 0, len(yearBins)+1)
	for _, bin := range yearBins {
		count := 0
		for year, yearCount := range perYear {
			if year >= bin.min && year <= bin.max {
				count += yearCount
			}
		}
		bins = append(bins, YearBin{Label: bin.label, Count: count})
	}
	if unknown > 0 {
		bins = append(bins, YearBin{Label: "Unknown", Count: unknown})
	}
	return bins
}

// crossTabulate builds the category×status table: a row per category
// present, a column per possible status (zero-filled) plus Total, rows
// sorted by category.
func crossTabulate(documents []model.Document) []CategoryStatusRow {
	groups := make(map[string]map[string]int)
	for _, doc := range documents {
		if groups[doc.DocumentCategory] == nil {
			counts := make(map[string]int, len(model.Statuses))
			for _, status := range model.Statuses {
				counts[status] = 0
			}
			groups[doc.DocumentCategory] = counts
		}
		groups[doc.DocumentCategory][doc.Status]++
	}

	categories := make([]string, 0, len(groups))
	for category := range groups {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	rows := make([]CategoryStatusRow, 0, len(categories))
	for _, category := range categories {
		total := 0
		for _, count := range groups[category] {
			total += count
		}
		rows = append(rows, CategoryStatusRow{Category: category, Counts: groups[category], Total: total})
	}
	return rows
}

func (s *DocumentService) buildLinks(documents []model.Document, years []YearBin, query url.Values) InsightLinks {
	links := InsightLinks{
		Complexity: []FilterLink{
			{Title: model.SimpleComplexity, Params: mergeParams(query, "complexity", model.SimpleComplexity)},
			{Title: model.ComplexComplexity, Params: mergeParams(query, "complexity", model.ComplexComplexity)},
		},
	}

	for i, bin := range yearBins {
		if i >= len(years) || years[i].Count == 0 {
			continue
		}
		params := cloneParams(query)
		params.Del("start_date")
		params.Del("end_date")
		if bin.min != math.MinInt {
			params.Set("start_date", fmt.Sprintf("%d-01-01", bin.min))
		}
		if bin.max != math.MaxInt {
			params.Set("end_date", fmt.Sprintf("%d-12-31", bin.max))
		}
		links.Years = append(links.Years, FilterLink{Title: bin.label, Params: params})
	}

	seen := make(map[string]bool)
	var decisions []string
	for _, doc := range documents {
		if !seen[doc.AccessibilityRecommendation] {
			seen[doc.AccessibilityRecommendation] = true
			decisions = append(decisions, doc.AccessibilityRecommendation)
		}
	}
	sort.Strings(decisions)
	for _, decision := range decisions {
		links.Decision = append(links.Decision, FilterLink{
			Title:  decision,
			Params: mergeParams(query, "accessibility_recommendation", decision),
		})
	}
	return links
}

func cloneParams(query url.Values) url.Values {
	cloned := make(url.Values, len(query))
	for key, values := range query {
		cloned[key] = append([]string(nil), values...)
	}
	return cloned
}

func mergeParams(query url.Values, key, value string) url.Values {
	merged := cloneParams(query)
	merged.Set(key, value)
	return merged
}
