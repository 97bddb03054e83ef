package models

// All returns every persistence model, in dependency order, for AutoMigrate in tests
func All() []interface{} {
	return []interface{}{
		&ProductModel{},
		&CartModel{},
		&CartItemModel{},
		&OrderModel{},
		&OrderLineModel{},
		&StockReservationModel{},
	}
}
