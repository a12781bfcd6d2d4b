package shipping

const (
	defaultItemWeight = 0.5 // pounds, applied when a product has no weight on file
	minPackageWeight  = 0.1
	maxStackedHeight  = 20.0

	defaultPackageLength = 10.0
	defaultPackageWidth  = 8.0
	defaultPackageHeight = 2.0
)

// FillPackageDefaults completes a partially specified package. Callers may
// supply just a weight or just dimensions; whatever is missing falls back
// to the default small box.
func FillPackageDefaults(pkg PackageDescriptor) PackageDescriptor {
	if pkg.Weight <= 0 {
		pkg.Weight = defaultItemWeight
	}
	if pkg.Length <= 0 {
		pkg.Length = defaultPackageLength
	}
	if pkg.Width <= 0 {
		pkg.Width = defaultPackageWidth
	}
	if pkg.Height <= 0 {
		pkg.Height = defaultPackageHeight
	}
	return pkg
}

// EstimatePackage derives a single-box descriptor from cart contents.
// Weight is the quantity-weighted sum of per-item weights. Dimensions use a
// stacking heuristic: the box takes the largest footprint across items and
// the items stack vertically, with the height capped so a long cart does not
// produce an unshippable package. An empty cart gets a small default box.
func EstimatePackage(items []LineItem) PackageDescriptor {
	if len(items) == 0 {
		return PackageDescriptor{
			Weight: defaultItemWeight,
			Length: defaultPackageLength,
			Width:  defaultPackageWidth,
			Height: defaultPackageHeight,
		}
	}

	var weight, length, width, height float64
	for _, item := range items {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		itemWeight := item.Weight
		if itemWeight <= 0 {
			itemWeight = defaultItemWeight
		}
		weight += itemWeight * float64(qty)

		if item.Length > length {
			length = item.Length
		}
		if item.Width > width {
			width = item.Width
		}
		if item.Height > 0 {
			height += item.Height * float64(qty)
		}
	}

	if weight < minPackageWeight {
		weight = minPackageWeight
	}
	if length <= 0 {
		length = defaultPackageLength
	}
	if width <= 0 {
		width = defaultPackageWidth
	}
	if height <= 0 {
		height = defaultPackageHeight
	}
	if height > maxStackedHeight {
		height = maxStackedHeight
	}

	return PackageDescriptor{
		Weight: weight,
		Length: length,
		Width:  width,
		Height: height,
	}
}
