package store

// Per-resource schemas. Column lists must stay in step with the db tags in
// pkg/models.

var onlineStoreSchema = Schema{
	Table:  "online_stores",
	Alias:  "s",
	Tenant: "merchant_id",
	Columns: []string{
		"s.id", "s.merchant_id", "s.name", "s.subdomain", "s.description",
		"s.is_open", "s.status", "s.created_at", "s.updated_at",
	},
}

var onlineMenuSchema = Schema{
	Table: "online_menus",
	Alias: "m",
	Parent: &Parent{
		Table:  "online_stores",
		Alias:  "s",
		On:     "s.id = m.store_id",
		Tenant: "merchant_id",
	},
	Columns: []string{
		"m.id", "m.store_id", "s.name AS store_name", "m.name", "m.description",
		"m.is_available", "m.sort_order", "m.status", "m.created_at", "m.updated_at",
	},
}

var onlineOrderSchema = Schema{
	Table:  "online_orders",
	Alias:  "o",
	Tenant: "merchant_id",
	Columns: []string{
		"o.id", "o.merchant_id", "o.store_id",
		"COALESCE(s.name, '') AS store_name", "COALESCE(s.subdomain, '') AS store_subdomain",
		"o.customer_id", "COALESCE(c.name, '') AS customer_name",
		"o.order_id", "o.total_amount", "o.payment_status", "o.notes",
		"o.status", "o.created_at", "o.updated_at",
	},
	Joins: "LEFT JOIN online_stores s ON s.id = o.store_id " +
		"LEFT JOIN customers c ON c.id = o.customer_id",
}

var tableSchema = Schema{
	Table:  "tables",
	Alias:  "t",
	Tenant: "merchant_id",
	Columns: []string{
		"t.id", "t.merchant_id", "t.table_number", "t.capacity", "t.location",
		"t.status", "t.created_at", "t.updated_at",
	},
}

var customerSchema = Schema{
	Table:  "customers",
	Alias:  "c",
	Tenant: "merchant_id",
	Columns: []string{
		"c.id", "c.merchant_id", "c.name", "c.email", "c.phone",
		"c.status", "c.created_at", "c.updated_at",
	},
}

var orderSchema = Schema{
	Table:  "orders",
	Alias:  "o",
	Tenant: "merchant_id",
	Columns: []string{
		"o.id", "o.merchant_id", "o.order_number", "o.customer_id",
		"c.name AS customer_name", "o.total_amount",
		"o.status", "o.created_at", "o.updated_at",
	},
	Joins: "LEFT JOIN customers c ON c.id = o.customer_id",
}

var subscriptionPlanSchema = Schema{
	Table:  "subscription_plans",
	Alias:  "p",
	Tenant: "merchant_id",
	Columns: []string{
		"p.id", "p.merchant_id", "p.code", "p.name", "p.price", "p.currency",
		"p.billing_interval", "p.trial_days", "p.status", "p.created_at", "p.updated_at",
	},
}

var applicationSchema = Schema{
	Table:  "applications",
	Alias:  "a",
	Tenant: "merchant_id",
	Columns: []string{
		"a.id", "a.merchant_id", "a.name", "a.description", "a.key_hash", "a.key_prefix",
		"a.scopes", "a.last_used_at", "a.status", "a.created_at", "a.updated_at",
	},
}

var merchantSubscriptionSchema = Schema{
	Table:  "merchant_subscriptions",
	Alias:  "ms",
	Tenant: "merchant_id",
	Columns: []string{
		"ms.id", "ms.merchant_id", "ms.plan_id",
		"COALESCE(p.name, '') AS plan_name", "COALESCE(p.code, '') AS plan_code",
		"ms.start_date", "ms.end_date", "ms.auto_renew",
		"ms.status", "ms.created_at", "ms.updated_at",
	},
	Joins: "LEFT JOIN subscription_plans p ON p.id = ms.plan_id",
}
