package domain

// Cart 购物车，与客户一一对应，首次访问时惰性创建。
type Cart struct {
	ID       int64
	ClientID int64
	Items    []CartItem
}

// CartItem 购物车行。同一购物车内每个商品最多一行，重复加购只累加数量。
// Quantity 为 0 是对账后的终态（商品售罄），该行会被保留以便客户看到提示。
type CartItem struct {
	ID        int64
	CartID    int64
	ProductID int64
	Quantity  int
}

// FindItem 返回购物车中指定商品的行。
func (c *Cart) FindItem(productID int64) (*CartItem, bool) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// ProductIDs 返回购物车中引用到的所有商品 ID。
func (c *Cart) ProductIDs() []int64 {
	ids := make([]int64, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}
