package models

// All lists every persisted model in dependency order for AutoMigrate
func All() []interface{} {
	return []interface{}{
		&User{},
		&Profile{},
		&PortfolioImage{},
		&Inventory{},
		&ShoppingCart{},
		&CustomDesignRequest{},
		&ArtisanUploadImage{},
		&Order{},
		&OrderStatusUpdate{},
		&Rating{},
	}
}
