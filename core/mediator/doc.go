// Package mediator dispatches in-process messages to typed handlers through
// delivery lanes chosen at registration.
//
// Handlers are registered per message type with one constructor per lane:
//
//	m := mediator.New(mediator.WithLogger(logger))
//	err := m.Register(
//		mediator.Response(getUser),                                   // GetResponse only
//		mediator.Request[Signup](lane.WithRecovery(createAccount, lane.RetryN[Signup](3, time.Second))),
//		mediator.Bubbling[Login](1, checkBan),                        // ordered chain, can stop
//		mediator.Bubbling[Login](2, recordLogin),
//		mediator.Notification[UserCreated](sendWelcome),              // fan-out
//		mediator.Parallel[UserCreated](warmCache),
//		mediator.FireAndForget[PageViewed](track),
//		mediator.Queue[ChargeCard](charge, lane.WithCapacity(1000, lane.Wait)),
//		mediator.Stack[RenderPreview](render),
//		mediator.Debounce[SearchTyped](suggest, lane.WithInterval(300*time.Millisecond)),
//		mediator.Throttle[SendSMS](sendBatch, lane.WithWindows(throttle.PerSliding(time.Second, 10))),
//		mediator.Accumulator[Click](storeClicks, lane.WithInterval(time.Second)),
//	)
//
// When a message type has several lanes, Publish uses the first one in the
// order accumulator, queue, stack, debounce, throttle, request, bubbling,
// notification, parallel, fire-and-forget. Response handlers are reached only
// through GetResponse.
//
// Start runs the queueing lane workers and the background runner for direct
// lanes. It blocks until the context is cancelled; Run adapts it to errgroup:
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(m.Run(ctx))
//
// Failures nobody waits for (queueing lanes, Publish on direct lanes,
// fire-and-forget) are handed to the WithDeadLetter callback, which logs by default.
package mediator
