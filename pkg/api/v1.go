// Package routing registers the HTTP operations over the search
// service and the record store.
package routing

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/comicbase/comics-api/pkg/catalog"
	"github.com/comicbase/comics-api/pkg/database"
	"github.com/comicbase/comics-api/pkg/search"
	"github.com/danielgtaylor/huma/v2"
)

// Config wires the API to its collaborators. DB is optional; when nil
// the statistics endpoint reports unavailability.
type Config struct {
	Service  *search.Service
	Store    catalog.Store
	Sessions *SessionRegistry
	DB       *database.DB
}

type PlainOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type SearchInput struct {
	SessionID string `header:"Session-Id" required:"false" doc:"Opaque client session identifier"`
	Query     string `query:"q" required:"false" doc:"Title substring to search for"`
	Genre     string `query:"genre" required:"false"`
	Author    string `query:"author" required:"false"`
	Year      string `query:"year" required:"false"`
	Languages string `query:"languages" required:"false" doc:"Comma-separated language list"`
	Order     string `query:"order" required:"false" enum:"asc,desc" doc:"Title sort order"`
	GroupBy   string `query:"group_by" required:"false" enum:"author,year" doc:"Optional grouping field"`
}

type SearchOutput struct {
	Body struct {
		Results []catalog.Record            `json:"results"`
		Groups  map[string][]catalog.Record `json:"groups,omitempty"`
		Total   int                         `json:"total"`
	}
}

type AdvancedSearchInput struct {
	SessionID string `header:"Session-Id" required:"false"`
	Body      struct {
		Author    string   `json:"author,omitempty"`
		Year      string   `json:"year,omitempty"`
		Genre     string   `json:"genre,omitempty"`
		Edition   string   `json:"edition,omitempty"`
		NameType  string   `json:"name_type,omitempty"`
		Languages []string `json:"languages,omitempty"`
	}
}

type IdentifierSearchInput struct {
	Code string `query:"code" required:"true" doc:"ISBN10 or ISBN13 code to search for"`
}

type RecordInput struct {
	ID string `path:"id" doc:"External record ID"`
}

type RecordOutput struct {
	Body catalog.Record
}

type BrowseInput struct {
	Limit  int `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Maximum number of results"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Offset for pagination"`
}

type BrowseOutput struct {
	Body struct {
		Total   int64            `json:"total"`
		Results []catalog.Record `json:"results"`
	}
}

type ReportsInput struct {
	Limit     int `query:"limit" default:"10" minimum:"1" maximum:"100" doc:"Rows per report"`
	Threshold int `query:"threshold" default:"100" minimum:"0" doc:"Minimum appearances for the high-frequency report"`
}

type ReportsOutput struct {
	Body struct {
		TopQueries    []search.QueryCount  `json:"top_queries"`
		TopResults    []search.RecordCount `json:"top_results"`
		HighFrequency []search.TitleCount  `json:"high_frequency"`
	}
}

type SearchListInput struct {
	SessionID string `header:"Session-Id" required:"false"`
}

type SearchListItemInput struct {
	SessionID string `header:"Session-Id" required:"false"`
	ID        string `path:"id"`
}

type SearchListOutput struct {
	Body struct {
		Records []catalog.Record `json:"records"`
	}
}

type StatsOutput struct {
	Body database.CachedStats
}

// Setup registers all operations on the given API.
func Setup(api huma.API, cfg Config) {
	api.UseMiddleware(authMiddleware(api))

	huma.Register(api, huma.Operation{
		OperationID: "HealthCheck",
		Method:      "GET",
		Path:        "/healthz",
		Summary:     "Health check",
		Description: "Check if the API is running",
		Tags:        []string{"Health"},
	}, func(ctx context.Context, input *struct{}) (*PlainOutput, error) {
		return &PlainOutput{
			ContentType: "text/plain",
			Body:        []byte("OK"),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "Search",
		Method:      "GET",
		Path:        "/v1/search",
		Summary:     "Search records",
		Description: "Search the catalog by title, genre, author, year and languages",
		Tags:        []string{"Search"},
	}, func(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
		params := search.Params{
			TitleQuery: input.Query,
			Genre:      input.Genre,
			Author:     input.Author,
			Year:       input.Year,
		}
		if strings.TrimSpace(input.Languages) != "" {
			params.Languages = strings.Split(input.Languages, ",")
		}

		results, err := cfg.Service.Search(ctx, params)
		if err != nil {
			return nil, huma.Error500InternalServerError("search failed", err)
		}
		if input.Order != "" {
			results = cfg.Service.Sort(results, input.Order)
		}

		session := cfg.Sessions.Get(input.SessionID)
		cfg.Service.RememberLastResults(session, results)

		resp := &SearchOutput{}
		resp.Body.Results = results
		resp.Body.Total = len(results)
		if input.GroupBy != "" {
			resp.Body.Groups = cfg.Service.Group(results, input.GroupBy)
		}
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "AdvancedSearch",
		Method:      "POST",
		Path:        "/v1/search/advanced",
		Summary:     "Advanced search",
		Description: "Structured search over all filterable fields; at least one criterion is required",
		Tags:        []string{"Search"},
	}, func(ctx context.Context, input *AdvancedSearchInput) (*SearchOutput, error) {
		results, err := cfg.Service.SearchStructured(ctx, search.Params{
			Author:    input.Body.Author,
			Year:      input.Body.Year,
			Genre:     input.Body.Genre,
			Edition:   input.Body.Edition,
			NameType:  input.Body.NameType,
			Languages: input.Body.Languages,
		})
		if errors.Is(err, search.ErrNoCriteria) {
			return nil, huma.Error422UnprocessableEntity("please provide at least one search criterion")
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("search failed", err)
		}

		session := cfg.Sessions.Get(input.SessionID)
		cfg.Service.RememberLastResults(session, results)

		resp := &SearchOutput{}
		resp.Body.Results = results
		resp.Body.Total = len(results)
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "SearchByIdentifier",
		Method:      "GET",
		Path:        "/v1/search/identifier",
		Summary:     "Search by identifier",
		Description: "Search for records matching an ISBN10 or ISBN13 code",
		Tags:        []string{"Search"},
	}, func(ctx context.Context, input *IdentifierSearchInput) (*SearchOutput, error) {
		results, err := cfg.Service.SearchByIdentifier(ctx, input.Code)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to search by identifier", err)
		}
		resp := &SearchOutput{}
		resp.Body.Results = results
		resp.Body.Total = len(results)
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetRecord",
		Method:      "GET",
		Path:        "/v1/records/{id}",
		Summary:     "Get one record",
		Tags:        []string{"Records"},
	}, func(ctx context.Context, input *RecordInput) (*RecordOutput, error) {
		rec, err := cfg.Store.GetByExternalID(ctx, input.ID)
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, huma.Error404NotFound("no record with ID " + input.ID)
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to load record", err)
		}
		return &RecordOutput{Body: *rec}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "BrowseRecords",
		Method:      "GET",
		Path:        "/v1/records",
		Summary:     "Browse records",
		Description: "List records ordered by title, paginated",
		Tags:        []string{"Records"},
	}, func(ctx context.Context, input *BrowseInput) (*BrowseOutput, error) {
		records, err := cfg.Store.All(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list records", err)
		}
		sort.SliceStable(records, func(i, j int) bool {
			return strings.ToLower(records[i].Title) < strings.ToLower(records[j].Title)
		})

		resp := &BrowseOutput{}
		resp.Body.Total = int64(len(records))
		start := input.Offset
		if start > len(records) {
			start = len(records)
		}
		end := start + input.Limit
		if end > len(records) {
			end = len(records)
		}
		resp.Body.Results = records[start:end]
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetReports",
		Method:      "GET",
		Path:        "/v1/reports",
		Summary:     "Usage reports",
		Description: "Top queries, top results and high-frequency records from the query log",
		Tags:        []string{"Reports"},
	}, func(ctx context.Context, input *ReportsInput) (*ReportsOutput, error) {
		resp := &ReportsOutput{}

		topQueries, err := cfg.Service.TopQueries(ctx, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to build reports", err)
		}
		topResults, err := cfg.Service.TopResults(ctx, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to build reports", err)
		}
		highFreq, err := cfg.Service.NamesAboveThreshold(ctx, input.Threshold)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to build reports", err)
		}

		resp.Body.TopQueries = topQueries
		resp.Body.TopResults = topResults
		resp.Body.HighFrequency = highFreq
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetSearchList",
		Method:      "GET",
		Path:        "/v1/search-list",
		Summary:     "Get the saved search list",
		Tags:        []string{"Search list"},
	}, func(ctx context.Context, input *SearchListInput) (*SearchListOutput, error) {
		session := cfg.Sessions.Get(input.SessionID)
		records, err := cfg.Service.SearchList(ctx, session)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to load search list", err)
		}
		resp := &SearchListOutput{}
		resp.Body.Records = records
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "AddToSearchList",
		Method:      "POST",
		Path:        "/v1/search-list/{id}",
		Summary:     "Save a record to the search list",
		Tags:        []string{"Search list"},
		Security:    []map[string][]string{{"bearerAuth": {}}},
	}, func(ctx context.Context, input *SearchListItemInput) (*PlainOutput, error) {
		if _, err := cfg.Store.GetByExternalID(ctx, input.ID); errors.Is(err, catalog.ErrNotFound) {
			return nil, huma.Error404NotFound("no record with ID " + input.ID)
		} else if err != nil {
			return nil, huma.Error500InternalServerError("failed to load record", err)
		}
		cfg.Service.AddToSearchList(cfg.Sessions.Get(input.SessionID), input.ID)
		return &PlainOutput{ContentType: "text/plain", Body: []byte("OK")}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "RemoveFromSearchList",
		Method:      "DELETE",
		Path:        "/v1/search-list/{id}",
		Summary:     "Remove a record from the search list",
		Tags:        []string{"Search list"},
		Security:    []map[string][]string{{"bearerAuth": {}}},
	}, func(ctx context.Context, input *SearchListItemInput) (*PlainOutput, error) {
		cfg.Service.RemoveFromSearchList(cfg.Sessions.Get(input.SessionID), input.ID)
		return &PlainOutput{ContentType: "text/plain", Body: []byte("OK")}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "ClearSearchState",
		Method:      "DELETE",
		Path:        "/v1/search-list",
		Summary:     "Clear the search list and last results",
		Tags:        []string{"Search list"},
		Security:    []map[string][]string{{"bearerAuth": {}}},
	}, func(ctx context.Context, input *SearchListInput) (*PlainOutput, error) {
		session := cfg.Sessions.Get(input.SessionID)
		cfg.Service.ClearSearchList(session)
		cfg.Service.ClearLastResults(session)
		return &PlainOutput{ContentType: "text/plain", Body: []byte("OK")}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetStatistics",
		Method:      "GET",
		Path:        "/v1/statistics",
		Summary:     "Get statistics",
		Description: "Get statistics about current data set",
		Tags:        []string{"Statistics"},
		Security:    []map[string][]string{{"bearerAuth": {}}},
	}, func(ctx context.Context, input *struct{}) (*StatsOutput, error) {
		if cfg.DB == nil {
			return nil, huma.Error503ServiceUnavailable("statistics are not available for this store")
		}
		stats := database.GetCachedStats()
		if stats == nil {
			go cfg.DB.ComputeAndCacheStats()
			return nil, huma.Error503ServiceUnavailable("statistics are being computed, please retry later")
		}
		return &StatsOutput{Body: *stats}, nil
	})
}
