package datawarehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"go.uber.org/zap"
)

// projectColumns are read from the warehouse export in this order
const projectColumns = "job_number, customer_name, site_name, contractor, trade, description, completed_on, contract_value"

// ListProjects returns exported jobs modified at or after since. A nil since
// reads the whole export. Each project carries its job number as ExternalRef.
func (c *Client) ListProjects(ctx context.Context, since *time.Time) ([]domain.Project, error) {
	if !c.IsEnabled() {
		return nil, fmt.Errorf("warehouse client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM %s", projectColumns, c.projectsTable)
	var args []interface{}
	if since != nil {
		query += " WHERE modified_at >= @p1"
		args = append(args, *since)
	}
	query += " ORDER BY job_number"

	start := time.Now()
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("warehouse project query failed: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var (
			jobNumber, customer                 string
			site, contractor, trade, desc, cost sql.NullString
			completed                           sql.NullTime
		)
		if err := rows.Scan(&jobNumber, &customer, &site, &contractor, &trade, &desc, &completed, &cost); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse project: %w", err)
		}

		ref := strings.TrimSpace(jobNumber)
		if ref == "" || strings.TrimSpace(customer) == "" {
			continue
		}

		p := domain.Project{
			CompanyName:    strings.TrimSpace(customer),
			LocationName:   strings.TrimSpace(site.String),
			PerformedBy:    strings.TrimSpace(contractor.String),
			Trade:          strings.ToLower(strings.TrimSpace(trade.String)),
			JobDescription: desc.String,
			Valuation:      cost.String,
			ExternalRef:    &ref,
		}
		if completed.Valid {
			d := completed.Time.UTC()
			p.PerformedOn = &d
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating warehouse projects: %w", err)
	}

	c.logger.Debug("Read warehouse projects",
		zap.Int("rows", len(projects)),
		zap.Duration("duration", time.Since(start)),
	)
	return projects, nil
}
