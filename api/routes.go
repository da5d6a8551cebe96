package api

import (
	"github.com/julienschmidt/httprouter"
)

// buildRoutes registers the HTTP surface. httprouter keeps one tree
// per method and rejects wildcard/static siblings, so collection
// aliases like /addresses/rich are dispatched inside the wildcard
// handlers.
func (api *API) buildRoutes(router *httprouter.Router) {
	router.GET("/", api.motdHandler)
	router.GET("/motd", api.motdHandler)
	router.GET("/supply", api.supplyHandler)
	router.GET("/work", api.workHandler)
	router.GET("/work/day", api.workDayHandler)
	router.GET("/work/detailed", api.workDetailedHandler)
	router.POST("/login", api.loginHandler)

	router.GET("/addresses", api.addressesHandler)
	router.GET("/addresses/:address", api.addressHandler)
	router.GET("/addresses/:address/names", api.addressNamesHandler)
	router.GET("/addresses/:address/transactions", api.addressTransactionsHandler)

	router.GET("/blocks", api.blocksHandler)
	router.GET("/blocks/:height", api.blockHandler)
	router.POST("/submit_block", api.submitBlockHandler)

	router.GET("/transactions", api.transactionsHandler)
	router.GET("/transactions/:id", api.transactionHandler)
	router.POST("/transactions", api.makeTransactionHandler)

	router.GET("/names", api.namesHandler)
	router.GET("/names/:name", api.nameHandler)
	router.GET("/names/:name/:sub", api.nameSubHandler)
	router.POST("/names/:name", api.purchaseNameHandler)
	router.POST("/names/:name/transfer", api.transferNameHandler)
	router.POST("/names/:name/update", api.updateNameHandler)
	router.PUT("/names/:name/update", api.updateNameHandler)

	router.GET("/staking", api.stakesHandler)
	router.POST("/staking", api.depositHandler)
	router.POST("/staking/withdraw", api.withdrawHandler)
	router.GET("/staking/:address", api.stakeHandler)

	router.GET("/lookup/addresses/:addresses", api.lookupAddressesHandler)
	router.GET("/lookup/blocks", api.lookupBlocksHandler)
	router.GET("/lookup/transactions", api.lookupTransactionsHandler)
	router.GET("/lookup/transactions/:addresses", api.lookupTransactionsHandler)
	router.GET("/lookup/names", api.lookupNamesHandler)
	router.GET("/lookup/names/:addresses", api.lookupNamesHandler)

	router.GET("/search", api.searchHandler)
	router.GET("/search/extended", api.searchExtendedHandler)
	router.GET("/search/extended/results/transactions/:type", api.searchResultsHandler)

	router.POST("/ws/start", api.wsStartHandler)
	router.GET("/ws/gateway/:token", api.wsGatewayHandler)
}
