package cart

// SetQuantity upserts the line for p with quantity q. A non-positive q
// removes the line. A q above the purchase limit is clamped to the limit and
// reported with LimitAdvisory. Name, price and limit are refreshed from p.
func SetQuantity(c Cart, p ProductRef, q int) (Cart, string) {
	if q <= 0 {
		return Remove(c, p.ProductID), ""
	}

	advisory := ""
	if p.PurchaseLimit != nil && q > *p.PurchaseLimit {
		q = *p.PurchaseLimit
		advisory = LimitAdvisory(*p.PurchaseLimit)
		if q <= 0 {
			return Remove(c, p.ProductID), advisory
		}
	}

	item := LineItem{
		ProductID:     p.ProductID,
		Name:          p.Name,
		UnitPrice:     p.UnitPrice,
		Quantity:      q,
		PurchaseLimit: copyLimit(p.PurchaseLimit),
	}
	items := c.clone()
	if i := c.index(p.ProductID); i >= 0 {
		items[i] = item
	} else {
		items = append(items, item)
	}
	return Cart{items: items}, advisory
}

// Increment adds one unit to an existing line. At the limit the cart is
// returned unchanged together with LimitAdvisory. Unknown ids are a no-op.
func Increment(c Cart, productID string) (Cart, string) {
	i := c.index(productID)
	if i < 0 {
		return c, ""
	}
	it := c.items[i]
	if it.PurchaseLimit != nil && it.Quantity >= *it.PurchaseLimit {
		return c, LimitAdvisory(*it.PurchaseLimit)
	}
	items := c.clone()
	items[i].Quantity++
	return Cart{items: items}, ""
}

// Decrement removes one unit; the line disappears when it reaches zero.
func Decrement(c Cart, productID string) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	if c.items[i].Quantity-1 <= 0 {
		return Remove(c, productID)
	}
	items := c.clone()
	items[i].Quantity--
	return Cart{items: items}
}

func Remove(c Cart, productID string) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	items := make([]LineItem, 0, len(c.items)-1)
	items = append(items, c.items[:i]...)
	items = append(items, c.items[i+1:]...)
	return Cart{items: items}
}

func Clear(Cart) Cart { return Cart{} }

// Reconcile refreshes every line from catalog. Lines whose product is gone
// are dropped; quantities above a lowered limit are clamped to it.
func Reconcile(c Cart, catalog []ProductRef) Cart {
	byID := make(map[string]ProductRef, len(catalog))
	for _, p := range catalog {
		byID[p.ProductID] = p
	}

	items := make([]LineItem, 0, len(c.items))
	for _, it := range c.items {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		it.Name = p.Name
		it.UnitPrice = p.UnitPrice
		it.PurchaseLimit = copyLimit(p.PurchaseLimit)
		if it.PurchaseLimit != nil && it.Quantity > *it.PurchaseLimit {
			it.Quantity = *it.PurchaseLimit
		}
		// a limit lowered to zero cannot leave a zero-quantity row behind
		if it.Quantity <= 0 {
			continue
		}
		items = append(items, it)
	}
	return Cart{items: items}
}

// Subtract takes the quantities in ordered out of c. A line drops when
// nothing is left of it; units added after ordered was taken stay.
func Subtract(c Cart, ordered Cart) Cart {
	items := make([]LineItem, 0, len(c.items))
	for _, it := range c.items {
		if o, ok := ordered.Get(it.ProductID); ok {
			it.Quantity -= o.Quantity
			if it.Quantity <= 0 {
				continue
			}
		}
		items = append(items, it)
	}
	return Cart{items: items}
}
