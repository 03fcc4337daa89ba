package mocks

//go:generate mockgen -destination=./mock_strategy.go -package=mocks github.com/rxtech-lab/stockbot/internal/strategy Strategy
//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/stockbot/internal/backtest/engine/engine_v1/datasource DataSource
