package auctions

var ExtendDeadline = extendDeadline
