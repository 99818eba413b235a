package inventory

import "github.com/shopspring/decimal"

// WeightedAverageCost implementa el costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((Existencia * CostoActual) + (CantEntrada * CostoEntrada)) / (Existencia + CantEntrada)
func WeightedAverageCost(onHand int, currentCost decimal.Decimal, received int, receivedCost decimal.Decimal) decimal.Decimal {
	sum := onHand + received
	if sum <= 0 {
		return decimal.Zero
	}
	num := decimal.NewFromInt(int64(onHand)).Mul(currentCost).
		Add(decimal.NewFromInt(int64(received)).Mul(receivedCost))
	return num.Div(decimal.NewFromInt(int64(sum)))
}

// TotalCost costo total de una línea: costo unitario * cantidad.
func TotalCost(unitCost decimal.Decimal, quantity int) decimal.Decimal {
	return unitCost.Mul(decimal.NewFromInt(int64(quantity)))
}
