package estoqueapi

import "context"

// DashboardSummary calls GET /dashboard/summary. Fields the API leaves out
// come back as zero values and empty lists.
func (c *Client) DashboardSummary(ctx context.Context) (*DashboardSummary, error) {
	var out DashboardSummary
	if err := c.get(ctx, "/dashboard/summary", nil, &out); err != nil {
		return nil, err
	}
	if out.StockAlerts == nil {
		out.StockAlerts = []string{}
	}
	if out.Movements == nil {
		out.Movements = []Movement{}
	}
	return &out, nil
}
