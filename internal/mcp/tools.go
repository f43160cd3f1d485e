package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/shopspring/decimal"

	"github.com/sharedfund/ledgerd/internal/service"
)

// parseDate accepts a date-only string; empty means "now".
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t.UTC(), nil
}

// RegisterTools registers the ledger tool set on the MCP server.
func RegisterTools(s *server.MCPServer, svc *service.Service) int {
	s.AddTool(overviewTool(), overviewHandler(svc))
	s.AddTool(listEntriesTool(), listEntriesHandler(svc))
	s.AddTool(recordMarkTool(), recordMarkHandler(svc))
	s.AddTool(recordCapitalTool(), recordCapitalHandler(svc))
	return 4
}

// errorResult creates an MCP error result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

// jsonResult marshals data as indented JSON text content.
func jsonResult(data interface{}) (*mcp.CallToolResult, error) {
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(string(body)),
		},
	}, nil
}

func overviewTool() mcp.Tool {
	return mcp.NewTool("get_overview",
		mcp.WithDescription("Get the fund's current state: portfolio value and each partner's capital, ownership, value, and profit/loss."),
	)
}

func overviewHandler(svc *service.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		overview, err := svc.GetOverview(ctx)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return jsonResult(overview)
	}
}

func listEntriesTool() mcp.Tool {
	return mcp.NewTool("list_entries",
		mcp.WithDescription("List ledger entries newest first."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum rows to return (default 20)."),
		),
	)
}

func listEntriesHandler(svc *service.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := r.GetInt("limit", 20)
		if limit < 0 {
			return errorResult("limit must not be negative"), nil
		}
		entries, err := svc.ListEntries(ctx, limit)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return jsonResult(entries)
	}
}

func recordMarkTool() mcp.Tool {
	return mcp.NewTool("record_mark",
		mcp.WithDescription("Record a new portfolio valuation mark as a trade entry."),
		mcp.WithNumber("portfolio_value",
			mcp.Description("Total portfolio value."),
			mcp.Required(),
		),
		mcp.WithString("date",
			mcp.Description("Entry date (YYYY-MM-DD), defaults to today."),
		),
		mcp.WithString("ticker",
			mcp.Description("Instrument ticker."),
		),
		mcp.WithString("trade_type",
			mcp.Description("Trade type, e.g. call or put."),
		),
		mcp.WithString("contracts",
			mcp.Description("Contract description, e.g. strike and expiry."),
		),
		mcp.WithString("notes",
			mcp.Description("Free-form notes."),
		),
	)
}

func recordMarkHandler(svc *service.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		date, err := parseDate(r.GetString("date", ""))
		if err != nil {
			return errorResult(err.Error()), nil
		}
		entry, err := svc.AddMark(ctx, service.MarkInput{
			Date:      date,
			Value:     decimal.NewFromFloat(r.GetFloat("portfolio_value", 0)),
			Ticker:    r.GetString("ticker", ""),
			TradeType: r.GetString("trade_type", ""),
			Contracts: r.GetString("contracts", ""),
			Notes:     r.GetString("notes", ""),
		})
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return jsonResult(entry)
	}
}

func recordCapitalTool() mcp.Tool {
	return mcp.NewTool("record_capital",
		mcp.WithDescription("Record a partner deposit or withdrawal."),
		mcp.WithString("person",
			mcp.Description("Partner name."),
			mcp.Required(),
		),
		mcp.WithNumber("amount",
			mcp.Description("Positive amount to deposit or withdraw."),
			mcp.Required(),
		),
		mcp.WithString("action",
			mcp.Description("Either add or withdraw."),
			mcp.Required(),
		),
		mcp.WithString("date",
			mcp.Description("Entry date (YYYY-MM-DD), defaults to today."),
		),
	)
}

func recordCapitalHandler(svc *service.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		date, err := parseDate(r.GetString("date", ""))
		if err != nil {
			return errorResult(err.Error()), nil
		}
		person := r.GetString("person", "")
		amount := decimal.NewFromFloat(r.GetFloat("amount", 0))

		switch action := r.GetString("action", ""); action {
		case "add", "deposit":
			entry, err := svc.Deposit(ctx, person, amount, date)
			if err != nil {
				return errorResult(err.Error()), nil
			}
			return jsonResult(entry)
		case "withdraw", "withdrawal":
			entry, err := svc.Withdraw(ctx, person, amount, date)
			if err != nil {
				return errorResult(err.Error()), nil
			}
			return jsonResult(entry)
		default:
			return errorResult(fmt.Sprintf("unknown action %q, expected add or withdraw", action)), nil
		}
	}
}
