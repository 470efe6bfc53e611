package config

// StockPolicy определяет поведение при закрытии заявки, когда запчасти нет на складе.
type StockPolicy string

const (
	StockPolicyWarn  StockPolicy = "warn"
	StockPolicyBlock StockPolicy = "block"
)

type Config struct {
	StockPolicy StockPolicy
	SeedFile    string
}
